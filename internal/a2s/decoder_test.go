package a2s_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/scpquery/internal/a2s"
	"github.com/woozymasta/scpquery/internal/a2s/a2stest"
)

func fixtureInfo() a2s.Info {
	return a2s.Info{
		Protocol:    17,
		Name:        "TestServer",
		Map:         "Facility",
		Folder:      "scpsl",
		Game:        "SCP: Secret Laboratory",
		AppID:       44970,
		Players:     5,
		MaxPlayers:  20,
		Bots:        1,
		ServerType:  'd',
		Environment: 'w',
		Password:    true,
		VAC:         true,
	}
}

func Test_DecodeInfo(t *testing.T) {
	t.Parallel()

	want := fixtureInfo()
	got, err := a2s.DecodeInfo(a2stest.EncodeInfo(want))
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func Test_DecodeInfoRoundTrip(t *testing.T) {
	t.Parallel()

	for _, info := range []a2s.Info{
		fixtureInfo(),
		{MaxPlayers: 20, ServerType: 'd', Environment: 'l'},
		{Name: "Ünïcødé 服务器", Map: "Heavy Containment", Players: 255, MaxPlayers: 255, ServerType: 'p', Environment: 'm'},
	} {
		first, err := a2s.DecodeInfo(a2stest.EncodeInfo(info))
		require.NoError(t, err)

		second, err := a2s.DecodeInfo(a2stest.EncodeInfo(*first))
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, info, *second)
	}
}

func Test_DecodeInfoTruncatedAfterAppID(t *testing.T) {
	t.Parallel()

	full := a2stest.EncodeInfo(fixtureInfo())
	// players, max players, bots, type, environment, password, vac
	truncated := full[:len(full)-7]

	got, err := a2s.DecodeInfo(truncated)
	require.NoError(t, err)
	require.Equal(t, "TestServer", got.Name)
	require.Equal(t, "Facility", got.Map)
	require.Equal(t, fixtureInfo().AppID, got.AppID)
	require.Equal(t, uint8(0), got.Players)
	require.Equal(t, uint8(20), got.MaxPlayers)
	require.Equal(t, uint8(0), got.Bots)
	require.Equal(t, a2s.ServerType('d'), got.ServerType)
	require.Equal(t, a2s.Environment('l'), got.Environment)
	require.False(t, got.Password)
	require.False(t, got.VAC)
}

func Test_DecodeInfoShortAppID(t *testing.T) {
	t.Parallel()

	payload := []byte{17}
	payload = append(payload, "name\x00map\x00folder\x00game\x00"...)
	payload = append(payload, 0x2A) // one byte of a two byte app id

	got, err := a2s.DecodeInfo(payload)
	require.NoError(t, err)
	require.Equal(t, uint16(0), got.AppID)
	// the lone byte is consumed as the player count
	require.Equal(t, uint8(0x2A), got.Players)
	require.Equal(t, uint8(20), got.MaxPlayers)
}

func Test_DecodeInfoUnterminatedString(t *testing.T) {
	t.Parallel()

	payload := append([]byte{17}, "TestServer\x00Facil"...)

	got, err := a2s.DecodeInfo(payload)
	require.NoError(t, err)
	require.Equal(t, "TestServer", got.Name)
	require.Equal(t, "Facil", got.Map)
	require.Empty(t, got.Folder)
	require.Empty(t, got.Game)
	require.Equal(t, uint8(20), got.MaxPlayers)
}

func Test_DecodeInfoInvalidUTF8(t *testing.T) {
	t.Parallel()

	payload := []byte{17, 'o', 'k', 0xFF, 0xFE, '!', 0x00, 'm', 0x00}

	got, err := a2s.DecodeInfo(payload)
	require.NoError(t, err)
	require.Equal(t, "ok\uFFFD!", got.Name)
	require.Equal(t, "m", got.Map)
}

func Test_DecodeInfoTrailingData(t *testing.T) {
	t.Parallel()

	payload := a2stest.EncodeInfo(fixtureInfo())
	payload = append(payload, "1.0.0\x00"...)
	payload = append(payload, 0x80, 0x01) // EDF flag and a short port

	got, err := a2s.DecodeInfo(payload)
	require.NoError(t, err)
	require.Equal(t, fixtureInfo(), *got)
}

func Test_DecodeInfoEmpty(t *testing.T) {
	t.Parallel()

	_, err := a2s.DecodeInfo(nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, a2s.ErrDecode))
	require.Contains(t, err.Error(), "parse failure")
}

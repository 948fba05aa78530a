package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/scpquery/internal/a2s"
)

func Test_NormalizeOnline(t *testing.T) {
	t.Parallel()

	st := Normalize(a2s.Result{
		Status: a2s.StatusOnline,
		Info: &a2s.Info{
			Name:       "TestServer",
			Map:        "Facility",
			Game:       "Classic",
			Players:    5,
			MaxPlayers: 20,
			Bots:       2,
			Ping:       42,
			VAC:        true,
		},
	})
	require.NotNil(t, st)
	require.Equal(t, Status{
		Online:     true,
		Ping:       42,
		Players:    5,
		MaxPlayers: 20,
		Bots:       2,
		Name:       "TestServer",
		GameMode:   "Classic",
		Map:        "Facility",
		RoundTime:  UnknownRoundTime,
		Version:    UnknownVersion,
		VAC:        true,
	}, *st)
}

func Test_NormalizeEmptyGameMode(t *testing.T) {
	t.Parallel()

	st := Normalize(a2s.Result{Status: a2s.StatusOnline, Info: &a2s.Info{Name: "x"}})
	require.NotNil(t, st)
	require.Equal(t, UnknownMode, st.GameMode)
	require.Equal(t, 0, st.Players)
}

func Test_NormalizeAbsent(t *testing.T) {
	t.Parallel()

	require.Nil(t, Normalize(a2s.Result{Status: a2s.StatusOffline, Reason: a2s.ReasonUnreachable}))
	require.Nil(t, Normalize(a2s.Result{Status: a2s.StatusError, Reason: "parse failure: empty payload"}))
	// online without info is not usable data
	require.Nil(t, Normalize(a2s.Result{Status: a2s.StatusOnline}))
}

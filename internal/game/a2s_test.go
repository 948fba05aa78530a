package game

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/scpquery/internal/a2s"
	"github.com/woozymasta/scpquery/internal/a2s/a2stest"
	"github.com/woozymasta/scpquery/internal/config"
)

var testOptions = config.A2S{Timeout: 300 * time.Millisecond, BufferSize: 1400}

func Test_QuerierOnlineOnNextPort(t *testing.T) {
	srv, err := a2stest.NewServer(a2stest.Challenge, a2s.Info{
		Name:        "TestServer",
		Map:         "Facility",
		Players:     5,
		MaxPlayers:  20,
		ServerType:  'd',
		Environment: 'l',
	})
	require.NoError(t, err)
	defer srv.Close()

	st := NewQuerier(testOptions).Query(context.Background(), "127.0.0.1", srv.Port()-1)
	require.NotNil(t, st)
	require.True(t, st.Online)
	require.Equal(t, 5, st.Players)
	require.Equal(t, 20, st.MaxPlayers)
	require.Equal(t, "TestServer", st.Name)
	require.Equal(t, "Facility", st.Map)
	require.Equal(t, UnknownMode, st.GameMode)
	require.GreaterOrEqual(t, st.Ping, int64(0))
}

func Test_QuerierOffline(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := uint16(conn.LocalAddr().(*net.UDPAddr).Port)
	require.NoError(t, conn.Close())

	require.Nil(t, NewQuerier(testOptions).Query(context.Background(), "127.0.0.1", port))
}

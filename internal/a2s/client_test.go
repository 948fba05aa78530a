package a2s_test

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/woozymasta/scpquery/internal/a2s"
	"github.com/woozymasta/scpquery/internal/a2s/a2stest"
)

const testTimeout = 300 * time.Millisecond

func newResponder(t *testing.T, mode a2stest.Mode, info a2s.Info) *a2stest.Server {
	t.Helper()

	srv, err := a2stest.NewServer(mode, info)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return srv
}

func Test_QueryPortDirect(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.Direct, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusOnline, res.Status)
	require.NotNil(t, res.Info)
	require.Equal(t, "TestServer", res.Info.Name)
	require.GreaterOrEqual(t, res.Info.Ping, int64(0))
	require.Equal(t, 1, srv.Requests())
}

func Test_QueryPortChallenge(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.Challenge, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.True(t, res.Online())
	require.Equal(t, "Facility", res.Info.Map)
	require.Equal(t, 2, srv.Requests())
}

func Test_QueryPortBadHeader(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.BadHeader, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusError, res.Status)
	require.Nil(t, res.Info)
	require.True(t, errors.Is(res.Err, a2s.ErrMalformedResponse))
}

func Test_QueryPortShortChallenge(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.ShortChallenge, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusError, res.Status)
	require.True(t, errors.Is(res.Err, a2s.ErrMalformedResponse))
	// no second round trip after a broken challenge
	require.Equal(t, 1, srv.Requests())
}

func Test_QueryPortUnexpectedType(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.UnexpectedType, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusError, res.Status)

	var typeErr *a2s.ErrUnexpectedType
	require.True(t, errors.As(res.Err, &typeErr))
	require.Equal(t, byte(0x6D), typeErr.Type)
}

func Test_QueryPortShortReply(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.ShortReply, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusError, res.Status)
	require.Nil(t, res.Info)
	require.ErrorIs(t, res.Err, a2s.ErrMalformedResponse)
	require.ErrorContains(t, res.Err, "reply of 4 bytes")
}

func Test_QueryPortHeaderOnly(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.HeaderOnly, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusError, res.Status)
	require.ErrorIs(t, res.Err, a2s.ErrDecode)
}

func Test_QueryPortTimeout(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.Silent, fixtureInfo())

	c := a2s.New(testTimeout, 0)
	start := time.Now()
	res := c.QueryPort(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusOffline, res.Status)
	require.True(t, errors.Is(res.Err, a2s.ErrTimeout))
	require.GreaterOrEqual(t, time.Since(start), testTimeout)
}

func Test_QueryPortContextCanceled(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.Silent, fixtureInfo())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := a2s.New(5*time.Second, 0)
	start := time.Now()
	res := c.QueryPort(ctx, a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusOffline, res.Status)
	require.Less(t, time.Since(start), 2*time.Second)
}

func Test_QueryPortCancelWithoutDeadline(t *testing.T) {
	t.Parallel()
	srv := newResponder(t, a2stest.Silent, fixtureInfo())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	c := a2s.New(5*time.Second, 0)
	start := time.Now()
	res := c.QueryPort(ctx, a2s.Target{Host: "127.0.0.1", Port: srv.Port()})
	require.Equal(t, a2s.StatusOffline, res.Status)
	require.Less(t, time.Since(start), 2*time.Second)
}

// silentNeighbours binds silent responders on p-1, p and p+1 and returns p.
func silentNeighbours(t *testing.T) uint16 {
	t.Helper()

	for range 10 {
		mid, err := a2stest.NewServer(a2stest.Silent, a2s.Info{})
		require.NoError(t, err)

		p := mid.Port()
		if p <= 1 || p >= 65535 {
			mid.Close()
			continue
		}

		low, err := a2stest.NewServerAt(net.JoinHostPort("127.0.0.1", strconv.Itoa(int(p-1))), a2stest.Silent, a2s.Info{})
		if err != nil {
			mid.Close()
			continue
		}
		high, err := a2stest.NewServerAt(net.JoinHostPort("127.0.0.1", strconv.Itoa(int(p+1))), a2stest.Silent, a2s.Info{})
		if err != nil {
			mid.Close()
			low.Close()
			continue
		}

		t.Cleanup(func() {
			low.Close()
			mid.Close()
			high.Close()
		})
		return p
	}

	t.Skip("no three adjacent free UDP ports")
	return 0
}

// Not parallel: timing bounds must not absorb scheduler noise of other tests.
func Test_QueryAllCandidatesTimeOutSequentially(t *testing.T) {
	port := silentNeighbours(t)

	c := a2s.New(testTimeout, 0)
	start := time.Now()
	res := c.Query(context.Background(), a2s.Target{Host: "127.0.0.1", Port: port})
	elapsed := time.Since(start)

	require.Equal(t, a2s.StatusOffline, res.Status)
	require.Equal(t, a2s.ReasonUnreachable, res.Reason)
	require.GreaterOrEqual(t, elapsed, 3*testTimeout)
	require.Less(t, elapsed, 3*testTimeout+time.Second)
}

// The responder listens one port above the nominal game port and needs one
// challenge round trip, as SCP: Secret Laboratory servers commonly do.
// Not parallel: a neighbouring responder of another test would answer first.
func Test_QueryEndToEndPortGuess(t *testing.T) {
	srv := newResponder(t, a2stest.Challenge, a2s.Info{
		Name:        "TestServer",
		Map:         "Facility",
		Players:     5,
		MaxPlayers:  20,
		ServerType:  'd',
		Environment: 'l',
	})

	c := a2s.New(testTimeout, 0)
	res := c.Query(context.Background(), a2s.Target{Host: "127.0.0.1", Port: srv.Port() - 1})
	require.True(t, res.Online())
	require.Equal(t, "TestServer", res.Info.Name)
	require.Equal(t, "Facility", res.Info.Map)
	require.Equal(t, uint8(5), res.Info.Players)
	require.Equal(t, uint8(20), res.Info.MaxPlayers)
	require.GreaterOrEqual(t, res.Info.Ping, int64(0))
}

func Test_QueryEndToEndOffline(t *testing.T) {
	// Reserve a port and release it so nothing listens there.
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := uint16(conn.LocalAddr().(*net.UDPAddr).Port)
	require.NoError(t, conn.Close())

	c := a2s.New(testTimeout, 0)
	start := time.Now()
	res := c.Query(context.Background(), a2s.Target{Host: "127.0.0.1", Port: port})
	elapsed := time.Since(start)

	require.False(t, res.Online())
	require.Equal(t, a2s.StatusOffline, res.Status)
	require.Equal(t, a2s.ReasonUnreachable, res.Reason)
	require.Nil(t, res.Info)
	require.Less(t, elapsed, 3*testTimeout+time.Second)
}

package a2s

import (
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type portRecorder struct {
	online map[uint16]bool
	tried  []uint16
	mu     sync.Mutex
}

func (r *portRecorder) query(_ context.Context, target Target) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tried = append(r.tried, target.Port)
	if r.online[target.Port] {
		return online(&Info{Name: target.Addr()})
	}
	return offline("timeout", ErrTimeout)
}

func Test_Candidates(t *testing.T) {
	t.Parallel()

	require.Equal(t, []uint16{7777, 7778, 7776}, Candidates(7777))
	require.Equal(t, []uint16{1, 2}, Candidates(1))
	require.Equal(t, []uint16{65535, 65534}, Candidates(65535))
	require.Equal(t, []uint16{1}, Candidates(0))
}

func Test_QueryStopsAtFirstOnline(t *testing.T) {
	t.Parallel()

	rec := &portRecorder{online: map[uint16]bool{7778: true}}
	c := &Client{queryPort: rec.query}

	res := c.Query(context.Background(), Target{Host: "127.0.0.1", Port: 7777})
	require.True(t, res.Online())
	require.Equal(t, "127.0.0.1:7778", res.Info.Name)
	require.Equal(t, []uint16{7777, 7778}, rec.tried)
}

func Test_QueryTriesAllBeforeOffline(t *testing.T) {
	t.Parallel()

	rec := &portRecorder{}
	c := &Client{queryPort: rec.query}

	res := c.Query(context.Background(), Target{Host: "127.0.0.1", Port: 7777})
	require.False(t, res.Online())
	require.Equal(t, StatusOffline, res.Status)
	require.Equal(t, ReasonUnreachable, res.Reason)
	require.Equal(t, []uint16{7777, 7778, 7776}, rec.tried)
}

func Test_QueryCanceled(t *testing.T) {
	t.Parallel()

	rec := &portRecorder{}
	c := &Client{queryPort: rec.query}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := c.Query(ctx, Target{Host: "127.0.0.1", Port: 7777})
	require.Equal(t, StatusOffline, res.Status)
	require.Empty(t, rec.tried)
}

func Test_ResultFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, StatusOffline, resultFor(ErrTimeout).Status)
	require.Equal(t, StatusOffline, resultFor(classify(syscall.ECONNREFUSED)).Status)
	require.Equal(t, StatusError, resultFor(ErrMalformedResponse).Status)
	require.Equal(t, StatusError, resultFor(&ErrUnexpectedType{Type: 0x6D}).Status)
	require.Equal(t, StatusError, resultFor(ErrDecode).Status)
}

func Test_QueryAttemptsAreSequential(t *testing.T) {
	t.Parallel()

	c := &Client{Timeout: 100 * time.Millisecond}

	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	c.queryPort = func(_ context.Context, _ Target) Result {
		mu.Lock()
		inFlight++
		peak = max(peak, inFlight)
		mu.Unlock()

		time.Sleep(c.timeout())

		mu.Lock()
		inFlight--
		mu.Unlock()
		return offline("timeout", ErrTimeout)
	}

	start := time.Now()
	res := c.Query(context.Background(), Target{Host: "127.0.0.1", Port: 7777})
	elapsed := time.Since(start)

	require.Equal(t, StatusOffline, res.Status)
	require.Equal(t, 1, peak)
	require.GreaterOrEqual(t, elapsed, 3*c.timeout())
	require.Less(t, elapsed, 3*c.timeout()+500*time.Millisecond)
}

package game

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/scpquery/internal/a2s"
)

// DefaultWorkers bounds QueryAll when workers is not positive.
const DefaultWorkers = 8

// Budget is the worst case duration of QueryAll over n targets: every wave of
// workers spends three candidate ports, each a challenge and a silent reply.
func Budget(n, workers int, timeout time.Duration) time.Duration {
	if n < 1 {
		n = 1
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = a2s.DefaultTimeout
	}

	waves := (n + workers - 1) / workers
	return time.Duration(waves) * 3 * 2 * timeout
}

// StatusQuerier is anything that can resolve a server status.
type StatusQuerier interface {
	Query(ctx context.Context, host string, port uint16) *Status
}

// Target is one server to check in QueryAll.
type Target struct {
	Host string
	Port uint16
}

func (t Target) key() uint64 {
	return xxhash.Sum64String(net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port))))
}

// QueryAll queries every target concurrently with at most workers in flight.
// The returned slice is index aligned with targets; nil entries are offline.
// Duplicate targets are queried once and share the result.
func QueryAll(ctx context.Context, q StatusQuerier, targets []Target, workers int) []*Status {
	// unique target index -> positions in targets
	var (
		unique    []Target
		positions [][]int
		seen      = make(map[uint64]int, len(targets))
	)
	for i, t := range targets {
		k := t.key()
		if u, ok := seen[k]; ok {
			positions[u] = append(positions[u], i)
			continue
		}
		seen[k] = len(unique)
		unique = append(unique, t)
		positions = append(positions, []int{i})
	}

	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(unique) {
		workers = len(unique)
	}

	results := make([]*Status, len(targets))
	jobs := make(chan int, len(unique))
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				if ctx.Err() != nil {
					continue
				}
				status := q.Query(ctx, unique[u].Host, unique[u].Port)
				for _, pos := range positions[u] {
					results[pos] = status
				}
			}
		}()
	}

	// Send jobs
	for u := range unique {
		jobs <- u
	}
	close(jobs)

	wg.Wait()

	return results
}

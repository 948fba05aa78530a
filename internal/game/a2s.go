// Package game provides functionality to query game servers using the Source Engine Query (A2S) protocol.
package game

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/a2s"
	"github.com/woozymasta/scpquery/internal/config"
)

// Querier resolves the status of a server from its game port.
type Querier struct {
	client *a2s.Client
}

// NewQuerier returns a Querier configured with the A2S options.
func NewQuerier(options config.A2S) *Querier {
	return &Querier{client: a2s.New(options.Timeout, options.BufferSize)}
}

// Query connects to a game server via UDP and requests A2S_INFO, trying the
// query port candidates of port. It returns nil when the server is unreachable.
func (q *Querier) Query(ctx context.Context, host string, port uint16) *Status {
	logger := log.With().
		Str("host", host).
		Uint16("port", port).
		Logger()

	res := q.client.Query(logger.WithContext(ctx), a2s.Target{Host: host, Port: port})
	if !res.Online() {
		logger.Debug().
			Err(res.Err).
			Str("status", res.Status.String()).
			Str("reason", res.Reason).
			Msg("A2S query failed")
		return nil
	}

	logger.Debug().
		Int64("ping_ms", res.Info.Ping).
		Uint8("players", res.Info.Players).
		Msg("A2S query succeeded")

	return Normalize(res)
}

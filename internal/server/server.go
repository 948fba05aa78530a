// Package server implements the HTTP API used by the chat host and operators.
package server

import (
	"net/http"
	"time"

	"github.com/woozymasta/scpquery/internal/bot"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/storage"
)

// New creates a Server. geo may be nil to disable country annotation.
func New(b *bot.Bot, querier game.StatusQuerier, store *storage.Repository, geo bot.CountryResolver, cfg *config.Config) *Server {
	defaultPort := cfg.Bot.DefaultPort
	if defaultPort == 0 {
		defaultPort = config.DefaultGamePort
	}

	return &Server{
		bot:            b,
		querier:        querier,
		storage:        store,
		geo:            geo,
		authToken:      cfg.Server.AuthToken,
		maxBody:        cfg.Server.MaxBodySize,
		trustProxy:     cfg.Server.TrustProxy,
		hardLimitCount: cfg.RateLimit.HardLimitCount,
		hardLimitWin:   cfg.RateLimit.HardLimitWin,
		groupCooldown:  cfg.RateLimit.GroupCooldown,
		workers:        cfg.A2S.Workers,
		queryTimeout:   cfg.A2S.Timeout,
		defaultPort:    defaultPort,

		shutdown: make(chan struct{}),
	}
}

// Start launches the background cleanup of the auto check cooldown cache.
func (s *Server) Start() {
	go s.gcSeenCache()
}

// Stop terminates the background goroutines. It is safe to call twice.
func (s *Server) Stop() {
	s.stopOnce.Do(func() { close(s.shutdown) })
}

// queryBudget bounds a request that may query every preset.
func (s *Server) queryBudget() time.Duration {
	return game.Budget(len(s.bot.Presets()), s.workers, s.queryTimeout)
}

// WriteTimeout is the http.Server write timeout that fits the slowest
// request: an overview of every preset with all of them silent.
func (s *Server) WriteTimeout() time.Duration {
	return s.queryBudget() + 5*time.Second
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		return AdminAuthMiddleware(s.authToken, s.RateLimitMiddleware(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return AdminAuthMiddleware(s.authToken, h)
	}

	mux.Handle("POST /api/message", limited(s.handleMessage))
	mux.Handle("GET /api/query", limited(s.handleQuery))
	mux.Handle("GET /api/version", authed(s.handleVersion))
	mux.Handle("GET /api/overview", authed(s.handleOverview))
	mux.Handle("GET /api/group/{id}", authed(s.handleGetGroup))
	mux.Handle("PUT /api/group/{id}", authed(s.handlePutGroup))
	mux.Handle("DELETE /api/group/{id}", authed(s.handleDeleteGroup))

	return s.LoggingMiddleware(mux)
}

// gcSeenCache periodically drops cooldown entries that have expired.
func (s *Server) gcSeenCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.seenCache.Range(func(key, value any) bool {
				if t, ok := value.(time.Time); !ok || now.Sub(t) > s.groupCooldown {
					s.seenCache.Delete(key)
				}
				return true
			})
		}
	}
}

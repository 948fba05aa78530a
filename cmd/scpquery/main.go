// main is the entry point of the SCPQuery service.
// It initializes the configuration, logger, database, GeoIP provider and either
// runs a one-shot task or serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/bot"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/geoip"
	"github.com/woozymasta/scpquery/internal/logger"
	"github.com/woozymasta/scpquery/internal/maintenance"
	"github.com/woozymasta/scpquery/internal/models"
	"github.com/woozymasta/scpquery/internal/server"
	"github.com/woozymasta/scpquery/internal/storage"
	"github.com/woozymasta/scpquery/internal/vars"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Debug().Str("version", vars.Version).Str("commit", vars.Commit).Msg("Starting scpquery")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presets, err := cfg.Bot.ParsePresets()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid preset")
	}

	geoProvider := openGeoIP(ctx, cfg.GeoIP)
	defer func() {
		if err := geoProvider.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GeoIP provider")
		}
	}()

	querier := game.NewQuerier(cfg.A2S)

	// One-shot query does not need the database
	if cfg.Query != "" {
		b := bot.New(querier, nil, geoProvider, bot.Options{DefaultPort: cfg.Bot.DefaultPort})
		reply := b.Handle(ctx, models.Message{UserID: "cli", Text: "/cx " + cfg.Query})
		fmt.Println(reply.Text)
		return
	}

	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	if maintenance.Run(ctx, cfg, store, querier) {
		return
	}

	b := bot.New(querier, store, geoProvider, bot.Options{
		Presets:     presets,
		SuperAdmins: cfg.Bot.SuperAdmins,
		Workers:     cfg.A2S.Workers,
		DefaultPort: cfg.Bot.DefaultPort,
		AutoCheck:   !cfg.Bot.NoAutoCheck,
	})

	srvHandler := server.New(b, querier, store, geoProvider, cfg)
	srvHandler.Start()

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           srvHandler.Run(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      srvHandler.WriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Int("presets", len(presets)).
			Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	srvHandler.Stop()

	log.Info().Msg("Server exited")
}

// openGeoIP refreshes and opens the country database. It returns nil when
// GeoIP is disabled or unavailable, which disables country annotation.
func openGeoIP(ctx context.Context, cfg config.GeoIP) *geoip.Provider {
	if cfg.Path == "" {
		return nil
	}

	if err := geoip.EnsureDB(ctx, cfg.Path, cfg.URL, cfg.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	provider, err := geoip.Open(cfg.Path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		return nil
	}

	return provider
}

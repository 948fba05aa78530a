// Package maintenance provides one-shot tasks on the binding database.
package maintenance

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/models"
)

// Store is the part of the repository used by maintenance tasks.
type Store interface {
	GetBindings() ([]models.Binding, error)
	DeleteBinding(groupID string) (bool, error)
}

// Report summarizes a binding check.
type Report struct {
	Offline []models.Binding
	Total   int
	Online  int
}

// Run checks if any maintenance flags are set and executes the corresponding task.
// Returns true if a task was executed, meaning the program should exit.
func Run(ctx context.Context, cfg *config.Config, store Store, q game.StatusQuerier) bool {
	if cfg.Storage.Unbind != "" {
		deleted, err := store.DeleteBinding(cfg.Storage.Unbind)
		switch {
		case err != nil:
			log.Error().Err(err).Str("group", cfg.Storage.Unbind).Msg("Failed to remove binding")
		case !deleted:
			log.Warn().Str("group", cfg.Storage.Unbind).Msg("Group has no binding")
		default:
			log.Info().Str("group", cfg.Storage.Unbind).Msg("Binding removed")
		}

		return true
	}

	if !cfg.Storage.CheckBindings {
		return false
	}

	report, err := CheckBindings(ctx, store, q, cfg.A2S.Workers)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch bindings")
		return true
	}

	log.Info().
		Int("total", report.Total).
		Int("online", report.Online).
		Int("offline", len(report.Offline)).
		Msg("Binding check completed")

	return true
}

// CheckBindings queries the server of every group binding with at most
// workers concurrent queries and logs each result.
func CheckBindings(ctx context.Context, store Store, q game.StatusQuerier, workers int) (Report, error) {
	bindings, err := store.GetBindings()
	if err != nil {
		return Report{}, err
	}

	report := Report{Total: len(bindings)}
	if len(bindings) == 0 {
		log.Info().Msg("No bindings found for maintenance")
		return report, nil
	}

	targets := make([]game.Target, len(bindings))
	for i, b := range bindings {
		targets[i] = game.Target{Host: b.Host, Port: b.Port}
	}

	log.Info().Int("count", len(bindings)).Int("workers", workers).Msg("Checking group bindings")
	statuses := game.QueryAll(ctx, q, targets, workers)

	for i, b := range bindings {
		logCtx := log.With().
			Str("group", b.GroupID).
			Str("addr", b.Addr()).
			Logger()

		st := statuses[i]
		if st == nil {
			report.Offline = append(report.Offline, b)
			logCtx.Warn().Msg("Bound server unreachable")
			continue
		}

		report.Online++
		logCtx.Info().
			Str("name", st.Name).
			Int("players", st.Players).
			Int("max_players", st.MaxPlayers).
			Int64("ping_ms", st.Ping).
			Msg("Bound server online")
	}

	return report, nil
}

// Package bot implements the chat commands that query SCP: Secret Laboratory
// servers and manage per-group server bindings.
package bot

import (
	"context"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/models"
)

// Store persists group bindings and administrators.
type Store interface {
	GetBinding(groupID string) (*models.Binding, error)
	SetBinding(b models.Binding) error
	DeleteBinding(groupID string) (bool, error)
	AddAdmin(userID, addedBy string) error
	RemoveAdmin(userID string) (bool, error)
	IsAdmin(userID string) (bool, error)
	GetAdmins() ([]models.Admin, error)
	CountAdmins() (int, error)
}

// CountryResolver maps an IP address to an ISO country code, "" when unknown.
type CountryResolver interface {
	GetCountryCode(ip string) string
}

// Options configures a Bot.
type Options struct {
	Presets     []models.Preset
	SuperAdmins []string
	Workers     int
	DefaultPort uint16
	AutoCheck   bool
}

// Bot dispatches chat messages to command handlers.
type Bot struct {
	querier     game.StatusQuerier
	store       Store
	geo         CountryResolver
	superAdmins map[uint64]struct{}
	presets     []models.Preset
	workers     int
	defaultPort uint16
	autoCheck   bool
}

// autoCheckPattern matches "is the server down?" style messages.
var autoCheckPattern = regexp.MustCompile(`炸了[?？]|(?i:server\s+down\?)`)

type handlerFunc func(b *Bot, ctx context.Context, msg models.Message, args []string) string

var commands = map[string]handlerFunc{
	"cx":          (*Bot).cmdQuery,
	"servers":     (*Bot).cmdServers,
	"xy":          (*Bot).cmdOverview,
	"zc":          (*Bot).cmdGroup,
	"scpsl_admin": (*Bot).cmdAdmin,
	"scpsl_help":  (*Bot).cmdHelp,
}

// New creates a Bot. geo may be nil to disable country annotation.
func New(querier game.StatusQuerier, store Store, geo CountryResolver, opts Options) *Bot {
	supers := make(map[uint64]struct{}, len(opts.SuperAdmins))
	for _, id := range opts.SuperAdmins {
		if id = strings.TrimSpace(id); id != "" {
			supers[xxhash.Sum64String(id)] = struct{}{}
		}
	}

	if opts.DefaultPort == 0 {
		opts.DefaultPort = config.DefaultGamePort
	}

	return &Bot{
		querier:     querier,
		store:       store,
		geo:         geo,
		superAdmins: supers,
		presets:     opts.Presets,
		workers:     opts.Workers,
		defaultPort: opts.DefaultPort,
		autoCheck:   opts.AutoCheck,
	}
}

// Presets returns the configured preset servers.
func (b *Bot) Presets() []models.Preset {
	return b.presets
}

// Handle answers a chat message. Messages that are neither a known command
// nor an auto-check trigger are reported as not handled.
func (b *Bot) Handle(ctx context.Context, msg models.Message) models.Reply {
	text := strings.TrimSpace(msg.Text)

	if name, args, ok := parseCommand(text); ok {
		handler, known := commands[name]
		if !known {
			return models.Reply{}
		}

		log.Debug().
			Str("command", name).
			Str("group", msg.GroupID).
			Str("user", msg.UserID).
			Msg("Handling command")

		return models.Reply{Handled: true, Text: handler(b, ctx, msg, args)}
	}

	if b.autoCheck && autoCheckPattern.MatchString(text) {
		log.Debug().
			Str("group", msg.GroupID).
			Str("user", msg.UserID).
			Msg("Auto check triggered")

		return models.Reply{Handled: true, Text: b.autoCheckReport(ctx)}
	}

	return models.Reply{}
}

// parseCommand splits "/name arg..." into a lower case name and its arguments.
func parseCommand(text string) (string, []string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}

	return strings.ToLower(fields[0]), fields[1:], true
}

func (b *Bot) isSuperAdmin(userID string) bool {
	_, ok := b.superAdmins[xxhash.Sum64String(userID)]
	return ok
}

// canManageBindings allows super admins and stored admins. When no admin
// exists at all, anyone in the group may manage its binding.
func (b *Bot) canManageBindings(userID string) (bool, error) {
	if b.isSuperAdmin(userID) {
		return true, nil
	}

	ok, err := b.store.IsAdmin(userID)
	if err != nil || ok {
		return ok, err
	}

	if len(b.superAdmins) > 0 {
		return false, nil
	}

	n, err := b.store.CountAdmins()
	if err != nil {
		return false, err
	}

	return n == 0, nil
}

func (b *Bot) country(host string) string {
	if b.geo == nil {
		return ""
	}
	return b.geo.GetCountryCode(host)
}

// overview queries all presets concurrently.
func (b *Bot) overview(ctx context.Context) []*game.Status {
	targets := make([]game.Target, len(b.presets))
	for i, p := range b.presets {
		targets[i] = game.Target{Host: p.Host, Port: p.Port}
	}

	return game.QueryAll(ctx, b.querier, targets, b.workers)
}

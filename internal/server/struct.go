package server

import (
	"sync"
	"time"

	"github.com/woozymasta/scpquery/internal/bot"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/models"
	"github.com/woozymasta/scpquery/internal/storage"
)

// Server holds the dependencies and runtime state of the HTTP API.
type Server struct {
	// bot answers chat messages delivered to /api/message.
	bot *bot.Bot

	// querier resolves live server statuses for /api/query, /api/overview and /api/group.
	querier game.StatusQuerier

	// storage holds group bindings.
	storage *storage.Repository

	// geo annotates query results with a country code, may be nil.
	geo bot.CountryResolver

	// shutdown stops the cache cleanup goroutines.
	shutdown chan struct{}

	// seenCache maps a group id to the time of its last auto check reply.
	seenCache sync.Map

	// authToken is the bearer token required on every /api endpoint.
	authToken string

	// maxBody limits request bodies in bytes.
	maxBody int64

	// hardLimitCount requests per IP are allowed within hardLimitWin.
	hardLimitCount int
	hardLimitWin   time.Duration

	// groupCooldown silences repeated auto checks of one group.
	groupCooldown time.Duration

	// workers bounds concurrent queries of /api/overview.
	workers int

	// queryTimeout is the A2S read timeout of one round trip.
	queryTimeout time.Duration

	// defaultPort is used when /api/query omits the port.
	defaultPort uint16

	// trustProxy enables CF-Connecting-IP and X-Forwarded-For.
	trustProxy bool

	stopOnce sync.Once
}

// bindingRequest is the body of PUT /api/group/{id}.
type bindingRequest struct {
	Host string `json:"host"`
	Name string `json:"name"`
	Port uint16 `json:"port"`
}

// queryResponse is a live status with the address it was queried at.
type queryResponse struct {
	*game.Status
	Host    string `json:"host"`
	Country string `json:"country,omitempty"`
	Port    uint16 `json:"port"`
}

// offlineResponse is returned by /api/query when the server does not answer.
type offlineResponse struct {
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
	Online bool   `json:"online"`
}

// overviewEntry is one preset of /api/overview.
type overviewEntry struct {
	Status *game.Status `json:"status"`
	Name   string       `json:"name"`
	Host   string       `json:"host"`
	Port   uint16       `json:"port"`
}

type overviewResponse struct {
	Servers      []overviewEntry `json:"servers"`
	Online       int             `json:"online"`
	Total        int             `json:"total"`
	TotalPlayers int             `json:"total_players"`
}

type groupResponse struct {
	Status  *game.Status   `json:"status"`
	Binding models.Binding `json:"binding"`
}

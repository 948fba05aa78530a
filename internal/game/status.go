package game

import "github.com/woozymasta/scpquery/internal/a2s"

// Placeholders for values the A2S_INFO reply does not carry.
const (
	UnknownMode      = "unknown mode"
	UnknownRoundTime = "unknown"
	UnknownVersion   = "unknown"
)

// Status is the caller facing server status. A nil *Status means the server
// could not be queried; it is never a zero filled placeholder.
type Status struct {
	Name       string `json:"name"`
	GameMode   string `json:"game_mode"`
	Map        string `json:"map"`
	RoundTime  string `json:"round_time"`
	Version    string `json:"version"`
	Ping       int64  `json:"ping_ms"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Bots       int    `json:"bots"`
	Online     bool   `json:"online"`
	Password   bool   `json:"password"`
	VAC        bool   `json:"vac"`
}

// Normalize maps a raw query result to a Status, or nil unless it is online.
func Normalize(res a2s.Result) *Status {
	if !res.Online() {
		return nil
	}

	info := res.Info
	mode := info.Game
	if mode == "" {
		mode = UnknownMode
	}

	return &Status{
		Online:     true,
		Ping:       info.Ping,
		Players:    int(info.Players),
		MaxPlayers: int(info.MaxPlayers),
		Bots:       int(info.Bots),
		Name:       info.Name,
		GameMode:   mode,
		Map:        info.Map,
		RoundTime:  UnknownRoundTime,
		Version:    UnknownVersion,
		Password:   info.Password,
		VAC:        info.VAC,
	}
}

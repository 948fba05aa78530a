// Package a2s implements a minimal Source Engine Query (A2S_INFO) client:
// the challenge/response handshake over UDP, a permissive info decoder,
// and the port-guessing strategy used for servers whose query port is
// offset from the game port.
package a2s

import (
	"net"
	"strconv"
)

// Target is a single (host, port) pair to query.
type Target struct {
	Host string
	Port uint16
}

// Addr returns the host:port form of the target.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// ServerType is the single character server type code.
type ServerType byte

// String returns a human readable server type.
func (t ServerType) String() string {
	switch t {
	case 'd':
		return "Dedicated"
	case 'l':
		return "Listen"
	case 'p':
		return "Proxy"
	default:
		return string(rune(t))
	}
}

// Environment is the single character platform code of the server.
type Environment byte

// String returns a human readable operating system name.
func (e Environment) String() string {
	switch e {
	case 'l':
		return "Linux"
	case 'w':
		return "Windows"
	case 'm', 'o':
		return "Mac"
	default:
		return string(rune(e))
	}
}

// Info is the decoded A2S_INFO reply.
type Info struct {
	Name        string      `json:"name"`
	Map         string      `json:"map"`
	Folder      string      `json:"folder"`
	Game        string      `json:"game"`
	Ping        int64       `json:"ping_ms"`
	AppID       uint16      `json:"app_id"`
	Protocol    byte        `json:"protocol"`
	Players     uint8       `json:"players"`
	MaxPlayers  uint8       `json:"max_players"`
	Bots        uint8       `json:"bots"`
	ServerType  ServerType  `json:"server_type"`
	Environment Environment `json:"environment"`
	Password    bool        `json:"password"`
	VAC         bool        `json:"vac"`
}

// ResultStatus discriminates a Result.
type ResultStatus int

const (
	// StatusOffline means the server did not answer (timeout, refused, network fault).
	StatusOffline ResultStatus = iota
	// StatusError means the server answered with something that is not a usable info reply.
	StatusError
	// StatusOnline means Info is populated.
	StatusOnline
)

// String returns the lower case status name.
func (s ResultStatus) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusError:
		return "error"
	default:
		return "offline"
	}
}

// Result is the outcome of a query. Info is set only when Status is StatusOnline.
// Err keeps the underlying cause for diagnostics.
type Result struct {
	Info   *Info
	Err    error
	Reason string
	Status ResultStatus
}

// Online reports whether the result carries server info.
func (r Result) Online() bool {
	return r.Status == StatusOnline && r.Info != nil
}

func online(info *Info) Result {
	return Result{Status: StatusOnline, Info: info}
}

func offline(reason string, err error) Result {
	return Result{Status: StatusOffline, Reason: reason, Err: err}
}

func failed(reason string, err error) Result {
	return Result{Status: StatusError, Reason: reason, Err: err}
}

// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/scpquery/internal/logger"
	"github.com/woozymasta/scpquery/internal/models"
	"github.com/woozymasta/scpquery/internal/vars"
)

// DefaultGamePort is the SCP: Secret Laboratory game port used when none is given.
const DefaultGamePort uint16 = 7777

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Server    Server        `group:"Server Options" env-namespace:"SCPQUERY"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"SCPQUERY_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"SCPQUERY_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"SCPQUERY_RATE_LIMIT"`
	A2S       A2S           `group:"A2S Options" namespace:"a2s" env-namespace:"SCPQUERY_A2S"`
	Bot       Bot           `group:"Bot Options" namespace:"bot" env-namespace:"SCPQUERY_BOT"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"SCPQUERY_LOG"`

	Query   string `short:"q" long:"query" description:"Query a single server (host[:port]), print its status and exit"`
	Version bool   `short:"v" long:"version" description:"Print version and build info"`
}

// Server holds web server configuration.
type Server struct {
	// betteralign:ignore

	Address     string `short:"l" long:"address" env:"LISTEN_ADDRESS" description:"Server listen address" default:":8080"`
	AuthToken   string `short:"t" long:"auth-token" env:"AUTH_TOKEN" description:"API bearer token of the chat host"`
	MaxBodySize int64  `long:"max-body-size" env:"MAX_BODY_SIZE" description:"Max body size for incoming requests" default:"4096"`
	TrustProxy  bool   `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database configuration.
type Storage struct {
	// betteralign:ignore

	Path          string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"scpquery.db"`
	CheckBindings bool   `long:"check-bindings" description:"Query every bound group server, log its status and exit"`
	Unbind        string `long:"unbind" description:"Remove the server binding of a group and exit" value-name:"GROUP"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file, empty disables country lookup" default:"scpquery.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds per client limits of the message endpoint.
type RateLimit struct {
	// betteralign:ignore

	HardLimitCount int           `long:"hard-count" env:"HARD_COUNT" description:"Hard IP limit: requests count" default:"30"`
	HardLimitWin   time.Duration `long:"hard-window" env:"HARD_WINDOW" description:"Hard IP limit: window duration" default:"1m"`
	GroupCooldown  time.Duration `long:"group-cooldown" env:"GROUP_COOLDOWN" description:"Minimum delay between auto checks of one group" default:"30s"`
}

// A2S holds Source Query protocol configuration.
type A2S struct {
	// betteralign:ignore

	Timeout    time.Duration `long:"timeout" env:"TIMEOUT" description:"Read timeout of every query round trip" default:"5s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Response body buffer size" default:"1400"`
	Workers    int           `long:"workers" env:"WORKERS" description:"Concurrent queries when checking many servers" default:"8"`
}

// Bot holds chat command configuration.
type Bot struct {
	// betteralign:ignore

	Presets     []string `short:"p" long:"preset" env:"PRESETS" env-delim:"," description:"Preset server as name=host:port, repeatable"`
	SuperAdmins []string `long:"super-admin" env:"SUPER_ADMINS" env-delim:"," description:"User IDs allowed to manage administrators"`
	DefaultPort uint16   `long:"default-port" env:"DEFAULT_PORT" description:"Game port used when a command omits it" default:"7777"`
	NoAutoCheck bool     `long:"no-auto-check" env:"NO_AUTO_CHECK" description:"Disable the 'server down?' message trigger"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print(os.Stdout)
		os.Exit(0)
	}

	if _, err := cfg.Bot.ParsePresets(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	oneShot := cfg.Query != "" || cfg.Storage.CheckBindings || cfg.Storage.Unbind != ""
	if !oneShot && cfg.Server.AuthToken == "" {
		fmt.Fprintln(os.Stderr,
			"Required flag `-t, --auth-token' or environment variable `SCPQUERY_AUTH_TOKEN` was not specified!")
		os.Exit(1)
	}

	return &cfg
}

// ParsePresets converts the name=host:port preset flags into presets.
func (b Bot) ParsePresets() ([]models.Preset, error) {
	presets := make([]models.Preset, 0, len(b.Presets))
	for _, raw := range b.Presets {
		name, addr, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid preset %q: expected name=host:port", raw)
		}

		host, port, err := SplitHostPort(strings.TrimSpace(addr), b.DefaultPort)
		if err != nil {
			return nil, fmt.Errorf("invalid preset %q: %w", raw, err)
		}

		presets = append(presets, models.Preset{Name: name, Host: host, Port: port})
	}

	return presets, nil
}

// SplitHostPort parses host[:port]; a missing port yields defaultPort.
// IPv6 literals must be bracketed when a port is given.
func SplitHostPort(addr string, defaultPort uint16) (string, uint16, error) {
	if addr == "" {
		return "", 0, fmt.Errorf("empty address")
	}

	host, portStr := addr, ""
	if i := strings.LastIndexByte(addr, ':'); i >= 0 && strings.Count(addr, ":") == 1 {
		host, portStr = addr[:i], addr[i+1:]
	} else if strings.HasPrefix(addr, "[") {
		end := strings.IndexByte(addr, ']')
		if end < 0 {
			return "", 0, fmt.Errorf("missing ']' in address %q", addr)
		}
		host, portStr = addr[1:end], strings.TrimPrefix(addr[end+1:], ":")
	}

	if host == "" {
		return "", 0, fmt.Errorf("empty host in %q", addr)
	}
	if portStr == "" {
		return host, defaultPort, nil
	}

	port, err := ParsePort(portStr)
	if err != nil {
		return "", 0, err
	}

	return host, port, nil
}

// ParsePort parses a port in 1..65535, tolerating surrounding brackets.
func ParsePort(s string) (uint16, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: must be a number", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("invalid port %d: must be between 1 and 65535", n)
	}

	return uint16(n), nil
}

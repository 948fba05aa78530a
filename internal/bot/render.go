package bot

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/models"
)

const noPresetsText = "No preset servers are configured."

const helpText = `SCP:SL server query help

Commands:
/servers - list preset servers
/xy - status overview of all preset servers
/cx <host> [port] - query any server
/zc - status of the server bound to this group
/zc <host> [port] [name] - bind a server to this group (admins)
/zc unbind - remove the group server (admins)
/scpsl_admin add|del <user> - manage administrators (super admins)
/scpsl_admin list - list administrators
/scpsl_help - show this help

A message containing "炸了?" or "server down?" checks all preset servers.

Notes:
- the default port is %d
- the query port is guessed as port, port+1, port-1
- /zc only works in group chats`

// renderStatus formats a single server status, or an unreachable notice when st is nil.
func renderStatus(title, host string, port uint16, country string, st *game.Status) string {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	if st == nil {
		return fmt.Sprintf("Unable to reach server %s.\nPlease check the address and port.", addr)
	}

	if country != "" {
		addr += " (" + country + ")"
	}

	var sb strings.Builder
	sb.WriteString(title + "\n")
	fmt.Fprintf(&sb, "Server: %s\n", addr)
	fmt.Fprintf(&sb, "Players: %d/%d\n", st.Players, st.MaxPlayers)
	fmt.Fprintf(&sb, "Name: %s\n", st.Name)
	fmt.Fprintf(&sb, "Mode: %s\n", st.GameMode)
	fmt.Fprintf(&sb, "Map: %s\n", st.Map)
	fmt.Fprintf(&sb, "Round time: %s\n", st.RoundTime)
	fmt.Fprintf(&sb, "Ping: %dms\n", st.Ping)
	sb.WriteString("Status: online")

	return sb.String()
}

func renderGroupStatus(b models.Binding, st *game.Status) string {
	if st == nil {
		return fmt.Sprintf("Unable to reach the group server %s.\nStatus: offline", b.Addr())
	}

	return fmt.Sprintf("Group server status\nServer: %s\nPlayers: %d/%d\nStatus: online",
		b.Title(), st.Players, st.MaxPlayers)
}

func renderPresets(presets []models.Preset) string {
	if len(presets) == 0 {
		return noPresetsText
	}

	var sb strings.Builder
	sb.WriteString("SCP:SL preset servers\n\n")
	for _, p := range presets {
		fmt.Fprintf(&sb, "- %s: %s\n", p.Name, p.Addr())
	}
	sb.WriteString("\nUse /xy to check all of them or /cx <host> [port] for any server.")

	return sb.String()
}

// renderOverview lists "name [players/max]" per preset followed by totals.
func renderOverview(presets []models.Preset, statuses []*game.Status) string {
	var (
		sb           strings.Builder
		onlineCount  int
		totalPlayers int
	)

	sb.WriteString("Server status overview\n")
	for i, p := range presets {
		st := statuses[i]
		if st == nil {
			fmt.Fprintf(&sb, "%s [offline]\n", p.Name)
			continue
		}

		onlineCount++
		totalPlayers += st.Players
		fmt.Fprintf(&sb, "%s [%d/%d]\n", p.Name, st.Players, st.MaxPlayers)
	}
	fmt.Fprintf(&sb, "Total: %d/%d servers online\n", onlineCount, len(presets))
	fmt.Fprintf(&sb, "Total players: %d", totalPlayers)

	return sb.String()
}

func renderAutoCheck(presets []models.Preset, statuses []*game.Status) string {
	var (
		sb          strings.Builder
		onlineCount int
	)

	sb.WriteString("Automatic server check\n\n")
	for i, p := range presets {
		st := statuses[i]
		if st == nil {
			fmt.Fprintf(&sb, "- %s: offline | players N/A | ping N/A\n", p.Name)
			continue
		}

		onlineCount++
		fmt.Fprintf(&sb, "- %s: online | players %d/%d | ping %dms\n", p.Name, st.Players, st.MaxPlayers, st.Ping)
	}
	fmt.Fprintf(&sb, "\nTotal: %d/%d servers online", onlineCount, len(presets))

	return sb.String()
}

func renderAdmins(admins []models.Admin) string {
	if len(admins) == 0 {
		return "No administrators are stored."
	}

	ids := make([]string, len(admins))
	for i, a := range admins {
		ids[i] = a.UserID
	}

	return "Administrators: " + strings.Join(ids, ", ")
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/models"
)

// cmdQuery handles "/cx <host> [port]" and "/cx host:port".
func (b *Bot) cmdQuery(ctx context.Context, _ models.Message, args []string) string {
	if len(args) == 0 {
		return "Please provide a server address.\nUsage: /cx <host> [port]\nExample: /cx 127.0.0.1 7777"
	}

	host, port, err := config.SplitHostPort(args[0], b.defaultPort)
	if err != nil {
		return "Invalid address: " + err.Error()
	}
	if len(args) > 1 {
		if port, err = config.ParsePort(args[1]); err != nil {
			return "Invalid port: " + err.Error()
		}
	}

	st := b.querier.Query(ctx, host, port)
	return renderStatus("SCP:SL server status", host, port, b.country(host), st)
}

// cmdServers handles "/servers".
func (b *Bot) cmdServers(_ context.Context, _ models.Message, _ []string) string {
	return renderPresets(b.presets)
}

// cmdOverview handles "/xy".
func (b *Bot) cmdOverview(ctx context.Context, _ models.Message, _ []string) string {
	if len(b.presets) == 0 {
		return noPresetsText
	}
	return renderOverview(b.presets, b.overview(ctx))
}

func (b *Bot) autoCheckReport(ctx context.Context) string {
	if len(b.presets) == 0 {
		return noPresetsText
	}
	return renderAutoCheck(b.presets, b.overview(ctx))
}

// cmdGroup handles "/zc", "/zc unbind" and "/zc <host> [port] [name...]".
func (b *Bot) cmdGroup(ctx context.Context, msg models.Message, args []string) string {
	if msg.GroupID == "" {
		return "This command can only be used in a group chat."
	}

	if len(args) == 0 {
		return b.groupStatus(ctx, msg.GroupID)
	}

	allowed, err := b.canManageBindings(msg.UserID)
	if err != nil {
		log.Error().Err(err).Str("user", msg.UserID).Msg("Failed to check admin")
		return "Failed to check permissions, please try again later."
	}
	if !allowed {
		return "Only administrators can change the group server."
	}

	if strings.EqualFold(args[0], "unbind") && len(args) == 1 {
		return b.groupUnbind(msg.GroupID)
	}

	binding, problem := b.parseBinding(msg.GroupID, args)
	if problem != "" {
		return problem
	}

	var sb strings.Builder
	if st := b.querier.Query(ctx, binding.Host, binding.Port); st == nil {
		fmt.Fprintf(&sb, "Warning: unable to reach %s, the binding is saved anyway.\n\n", binding.Addr())
	}

	if err := b.store.SetBinding(binding); err != nil {
		log.Error().Err(err).Str("group", msg.GroupID).Msg("Failed to save group binding")
		return "Failed to save the group server, please try again later."
	}

	log.Info().
		Str("group", msg.GroupID).
		Str("user", msg.UserID).
		Str("addr", binding.Addr()).
		Msg("Group server bound")

	fmt.Fprintf(&sb, "Group server saved.\nServer: %s\nUse /zc to check its status.", binding.Title())
	return sb.String()
}

// parseBinding reads "<host> [port] [name...]"; a non numeric second
// argument starts the name. It returns a user facing problem on bad input.
func (b *Bot) parseBinding(groupID string, args []string) (models.Binding, string) {
	host, port, err := config.SplitHostPort(args[0], b.defaultPort)
	if err != nil {
		return models.Binding{}, "Invalid address: " + err.Error()
	}

	nameArgs := args[1:]
	if len(nameArgs) > 0 {
		if _, numErr := strconv.Atoi(strings.Trim(nameArgs[0], "[]")); numErr == nil {
			if port, err = config.ParsePort(nameArgs[0]); err != nil {
				return models.Binding{}, "Invalid port: " + err.Error()
			}
			nameArgs = nameArgs[1:]
		}
	}

	return models.Binding{
		GroupID: groupID,
		Host:    host,
		Port:    port,
		Name:    strings.Join(nameArgs, " "),
	}, ""
}

func (b *Bot) groupStatus(ctx context.Context, groupID string) string {
	binding, err := b.store.GetBinding(groupID)
	if err != nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to load group binding")
		return "Failed to load the group server, please try again later."
	}
	if binding == nil {
		return "This group has no bound server yet.\nUsage: /zc <host> [port] [name]"
	}

	st := b.querier.Query(ctx, binding.Host, binding.Port)
	return renderGroupStatus(*binding, st)
}

func (b *Bot) groupUnbind(groupID string) string {
	deleted, err := b.store.DeleteBinding(groupID)
	if err != nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to delete group binding")
		return "Failed to remove the group server, please try again later."
	}
	if !deleted {
		return "This group has no bound server."
	}

	log.Info().Str("group", groupID).Msg("Group server unbound")
	return "Group server removed."
}

// cmdAdmin handles "/scpsl_admin add|del <user>" and "/scpsl_admin list".
func (b *Bot) cmdAdmin(_ context.Context, msg models.Message, args []string) string {
	const usage = "Usage: /scpsl_admin add <user> | del <user> | list"
	if len(args) == 0 {
		return usage
	}

	action := strings.ToLower(args[0])
	if action == "list" {
		admins, err := b.store.GetAdmins()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list admins")
			return "Failed to list administrators, please try again later."
		}
		return renderAdmins(admins)
	}

	if (action != "add" && action != "del") || len(args) != 2 {
		return usage
	}
	if !b.isSuperAdmin(msg.UserID) {
		return "Only super administrators can manage administrators."
	}

	userID := args[1]
	if action == "add" {
		if err := b.store.AddAdmin(userID, msg.UserID); err != nil {
			log.Error().Err(err).Str("admin", userID).Msg("Failed to add admin")
			return "Failed to add the administrator, please try again later."
		}
		log.Info().Str("admin", userID).Str("by", msg.UserID).Msg("Admin added")
		return fmt.Sprintf("User %s is now an administrator.", userID)
	}

	removed, err := b.store.RemoveAdmin(userID)
	if err != nil {
		log.Error().Err(err).Str("admin", userID).Msg("Failed to remove admin")
		return "Failed to remove the administrator, please try again later."
	}
	if !removed {
		return fmt.Sprintf("User %s is not an administrator.", userID)
	}

	log.Info().Str("admin", userID).Str("by", msg.UserID).Msg("Admin removed")
	return fmt.Sprintf("User %s is no longer an administrator.", userID)
}

// cmdHelp handles "/scpsl_help".
func (b *Bot) cmdHelp(_ context.Context, _ models.Message, _ []string) string {
	return fmt.Sprintf(helpText, b.defaultPort)
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/models"
)

// handleMessage dispatches one chat message through the bot and replies with
// {handled, text}. Chat that is not a command is subject to the per group
// auto check cooldown.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ip := GetRealIP(r, s.trustProxy)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var msg models.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("Invalid JSON")
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(msg.Text) == "" || msg.UserID == "" {
		http.Error(w, "Missing user_id or text", http.StatusBadRequest)
		return
	}

	isCommand := strings.HasPrefix(strings.TrimSpace(msg.Text), "/")
	if !isCommand && s.coolingDown(msg.GroupID) {
		log.Trace().
			Str("ip", ip).
			Str("group", msg.GroupID).
			Msg("Dropped by group cooldown")

		writeJSON(w, http.StatusOK, models.Reply{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryBudget())
	defer cancel()

	reply := s.bot.Handle(ctx, msg)
	if reply.Handled && !isCommand && msg.GroupID != "" {
		s.seenCache.Store(msg.GroupID, time.Now())
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) coolingDown(groupID string) bool {
	if groupID == "" || s.groupCooldown <= 0 {
		return false
	}

	val, ok := s.seenCache.Load(groupID)
	if !ok {
		return false
	}

	lastSeen, ok := val.(time.Time)
	return ok && time.Since(lastSeen) < s.groupCooldown
}

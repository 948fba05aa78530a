package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/config"
	"github.com/woozymasta/scpquery/internal/game"
	"github.com/woozymasta/scpquery/internal/models"
	"github.com/woozymasta/scpquery/internal/vars"
)

// handleQuery performs a live query of any server.
// Query params: ?host=1.2.3.4&port=7777, the port is optional.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	host, port, err := config.SplitHostPort(r.URL.Query().Get("host"), s.defaultPort)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if portStr := r.URL.Query().Get("port"); portStr != "" {
		if port, err = config.ParsePort(portStr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	st := s.querier.Query(r.Context(), host, port)
	if st == nil {
		writeJSON(w, http.StatusOK, offlineResponse{Host: host, Port: port})
		return
	}

	resp := queryResponse{Status: st, Host: host, Port: port}
	if s.geo != nil {
		resp.Country = s.geo.GetCountryCode(host)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleVersion returns the build information.
func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, vars.Info())
}

// handleOverview queries every preset concurrently.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	presets := s.bot.Presets()

	targets := make([]game.Target, len(presets))
	for i, p := range presets {
		targets[i] = game.Target{Host: p.Host, Port: p.Port}
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.queryBudget())
	defer cancel()

	statuses := game.QueryAll(ctx, s.querier, targets, s.workers)

	resp := overviewResponse{
		Servers: make([]overviewEntry, len(presets)),
		Total:   len(presets),
	}
	for i, p := range presets {
		resp.Servers[i] = overviewEntry{Name: p.Name, Host: p.Host, Port: p.Port, Status: statuses[i]}
		if statuses[i] != nil {
			resp.Online++
			resp.TotalPlayers += statuses[i].Players
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleGetGroup returns the binding of a group with its live status.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	binding, err := s.storage.GetBinding(groupID)
	if err != nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to fetch binding")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}
	if binding == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, groupResponse{
		Binding: *binding,
		Status:  s.querier.Query(r.Context(), binding.Host, binding.Port),
	})
}

// handlePutGroup creates or replaces the binding of a group.
// Body: {"host": "1.2.3.4", "port": 7777, "name": "Main"}, port and name are optional.
func (s *Server) handlePutGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	host, port, err := config.SplitHostPort(strings.TrimSpace(req.Host), s.defaultPort)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Port != 0 {
		port = req.Port
	}

	binding := models.Binding{GroupID: groupID, Host: host, Port: port, Name: strings.TrimSpace(req.Name)}
	if err := s.storage.SetBinding(binding); err != nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to save binding")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("group", groupID).
		Str("addr", binding.Addr()).
		Msg("Group server bound via API")

	saved, err := s.storage.GetBinding(groupID)
	if err != nil || saved == nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to reload binding")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteGroup removes the binding of a group.
func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("id")

	deleted, err := s.storage.DeleteBinding(groupID)
	if err != nil {
		log.Error().Err(err).Str("group", groupID).Msg("Failed to delete binding")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.NotFound(w, r)
		return
	}

	log.Info().Str("group", groupID).Msg("Group server unbound via API")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Binding deleted"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

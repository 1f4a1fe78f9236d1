package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hoopslive/hoops-data/internal/api/respond"
	"github.com/hoopslive/hoops-data/internal/cache"
)

// GetPlayerStats serves a player's season aggregates through the cache-aside
// layer. The season query parameter defaults to the active season.
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	seasonID, ok := h.resolveSeason(w, r)
	if !ok {
		return
	}

	key := cache.PlayerStatsKey(playerID, seasonID)
	data, hit, err := h.cache.GetOrLoad(r.Context(), key, func(ctx context.Context) ([]byte, error) {
		stats, err := h.reader.PlayerStats(ctx, playerID, seasonID)
		if err != nil || stats == nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
	if err != nil {
		h.logger.Error("failed to fetch player stats", "player_id", playerID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to fetch player stats")
		return
	}
	if data == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No stats for player "+playerID)
		return
	}
	respond.WriteRawJSON(w, data, hit)
}

// GetTeamStats serves a team's season aggregates through the cache-aside
// layer.
func (h *Handler) GetTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	seasonID, ok := h.resolveSeason(w, r)
	if !ok {
		return
	}

	key := cache.TeamStatsKey(teamID, seasonID)
	data, hit, err := h.cache.GetOrLoad(r.Context(), key, func(ctx context.Context) ([]byte, error) {
		stats, err := h.reader.TeamStats(ctx, teamID, seasonID)
		if err != nil || stats == nil {
			return nil, err
		}
		return json.Marshal(stats)
	})
	if err != nil {
		h.logger.Error("failed to fetch team stats", "team_id", teamID, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to fetch team stats")
		return
	}
	if data == nil {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "No stats for team "+teamID)
		return
	}
	respond.WriteRawJSON(w, data, hit)
}

// resolveSeason returns the requested season, falling back to the active
// season. Writes the error response itself when resolution fails.
func (h *Handler) resolveSeason(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s := r.URL.Query().Get("season"); s != "" {
		return s, true
	}
	season, err := h.reader.ActiveSeason(r.Context())
	if err != nil {
		h.logger.Error("failed to resolve active season", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to resolve season")
		return "", false
	}
	if season == nil {
		respond.WriteError(w, http.StatusNotFound, "NO_ACTIVE_SEASON", "No active season")
		return "", false
	}
	return season.ID, true
}

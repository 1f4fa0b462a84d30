package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/marquessam/select-start-api/internal/application/command"
	"github.com/marquessam/select-start-api/internal/application/query"
	"github.com/marquessam/select-start-api/internal/domain/shared"
	"github.com/marquessam/select-start-api/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// healthResponse is the /health payload. The check reports process state
// only; it never touches the cache or the record store.
type healthResponse struct {
	Status  string  `json:"status"`
	Uptime  string  `json:"uptime"`
	Time    string  `json:"time"`
	Version string  `json:"version"`
	Service string  `json:"service"`
	UptimeS float64 `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := s.Uptime()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Uptime:  uptime.Round(time.Second).String(),
		UptimeS: uptime.Seconds(),
		Time:    time.Now().UTC().Format(time.RFC3339),
		Version: "v1",
		Service: "select-start-api",
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service": "select-start-api",
		"version": "v1",
		"endpoints": []string{
			"GET /health",
			"GET /api/v1/leaderboard/monthly",
			"GET /api/v1/leaderboard/yearly",
			"GET /api/v1/nominations",
			"POST /api/v1/admin/cache/invalidate",
		},
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// forceRefresh reads the refresh flag. The documented name is
// forceRefresh; the snake_case spelling is accepted as an alias.
func forceRefresh(r *http.Request) bool {
	return getQueryParamBool(r, "forceRefresh") || getQueryParamBool(r, "force_refresh")
}

func (s *Server) handleMonthlyLeaderboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.MonthlyLeaderboard.Handle(r.Context(), query.GetMonthlyLeaderboardQuery{
		ForceRefresh: forceRefresh(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleYearlyLeaderboard(w http.ResponseWriter, r *http.Request) {
	year, ok := getQueryParamInt(r, "year", 0)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "year must be a number")
		return
	}

	result, err := s.deps.YearlyLeaderboard.Handle(r.Context(), query.GetYearlyLeaderboardQuery{
		Year:         year,
		ForceRefresh: forceRefresh(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOMINATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleNominations(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Nominations.Handle(r.Context(), query.GetNominationsQuery{
		ForceRefresh: forceRefresh(r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type invalidateRequest struct {
	Target string `json:"target"`
}

func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", "Request body must be JSON with a target field")
		return
	}

	result, err := s.deps.InvalidateCache.Handle(r.Context(), command.InvalidateCacheCommand{
		Target: command.InvalidateTarget(req.Target),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError translates domain errors into HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, shared.ErrUnauthorized):
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Valid X-API-Key header required")
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", "Admin access denied")
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsSourceUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, "source_unavailable", "The record store is temporarily unavailable")
	default:
		s.logger.Error("unhandled request error",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/application/command"
	"github.com/alem-hub/puzzle-hub/internal/application/query"
	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Puzzle Hub API",
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health":       "/health",
			"events":       "/api/v1/events",
			"leaderboard":  "/api/v1/leaderboard",
			"achievements": "/api/v1/achievements",
			"stats":        "/api/v1/stats",
		},
	})
}

// handleHealth reports the aggregated status of all backing stores.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  s.Uptime().String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())

	httpStatus := http.StatusOK
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, r, httpStatus, status)
}

// handleReady returns 200 when the service can accept traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if status := s.deps.HealthChecker.Check(r.Context()); !status.Ready {
			writeJSONErrorWithDetails(w, r, http.StatusServiceUnavailable, "not_ready", "Service is not ready", status.Message)
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]bool{"ready": true})
}

// handleLive returns 200 while the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// GAME EVENT INGESTION
// ══════════════════════════════════════════════════════════════════════════════

// handleSubmitEvent validates a game event and queues it.
// POST /api/v1/events
//
// Processing is asynchronous: 202 means accepted, not awarded.
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	if s.deps.Events == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "service_unavailable", "Event ingestion is not configured")
		return
	}

	var ev achievement.GameEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_body", "Request body is not a valid game event", err.Error())
		return
	}

	if err := ev.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}

	if err := s.deps.Events.Submit(ev); err != nil {
		logger.FromContext(r.Context()).Warn("game event rejected",
			logger.PlayerID(ev.PlayerID),
			logger.EventType(string(ev.EventType)),
			logger.Err(err),
		)
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusAccepted, map[string]string{
		"status":    "accepted",
		"playerId":  ev.PlayerID,
		"eventType": string(ev.EventType),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard returns one page of the ranking.
// GET /api/v1/leaderboard?page=1&page_size=20
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, ok := getQueryParamInt(r, "page", 1)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_parameter", "page must be an integer")
		return
	}
	pageSize, ok := getQueryParamInt(r, "page_size", query.DefaultPageSize)
	if !ok {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_parameter", "page_size must be an integer")
		return
	}

	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, result, &ResponseMeta{
		TotalCount: result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		HasMore:    result.HasMore,
	})
}

// upsertScoreRequest is the body of PUT /api/v1/leaderboard/users/{id}.
type upsertScoreRequest struct {
	Username      string `json:"username"`
	Points        int64  `json:"points"`
	PuzzlesSolved int64  `json:"puzzlesSolved"`
}

// handleUpsertScore replaces a player's leaderboard record.
// PUT /api/v1/leaderboard/users/{id}
func (s *Server) handleUpsertScore(w http.ResponseWriter, r *http.Request) {
	var req upsertScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON", err.Error())
		return
	}

	user, err := s.deps.UpsertScore.Handle(r.Context(), command.UpsertScoreCommand{
		UserID:        r.PathValue("id"),
		Username:      req.Username,
		Points:        req.Points,
		PuzzlesSolved: req.PuzzlesSolved,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, user)
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListAchievements returns all achievement definitions.
// GET /api/v1/achievements
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	defs, err := s.deps.ListAchievements.Handle(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, defs, &ResponseMeta{TotalCount: len(defs)})
}

// handleListPlayerAchievements returns a player's awards, newest first.
// GET /api/v1/players/{id}/achievements
func (s *Server) handleListPlayerAchievements(w http.ResponseWriter, r *http.Request) {
	awards, err := s.deps.ListPlayerAchievements.Handle(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, awards, &ResponseMeta{TotalCount: len(awards)})
}

// handleRecentAwards returns the latest awards across all players.
// GET /api/v1/achievements/recent?limit=20
func (s *Server) handleRecentAwards(w http.ResponseWriter, r *http.Request) {
	limit, ok := getQueryParamInt(r, "limit", 20)
	if !ok || limit < 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_parameter", "limit must be a non-negative integer")
		return
	}

	recent := s.deps.RecentAwards.Recent(limit)
	writeJSONWithMeta(w, r, http.StatusOK, recent, &ResponseMeta{TotalCount: len(recent)})
}

// upsertAchievementRequest is the body of PUT /api/v1/admin/achievements/{id}.
type upsertAchievementRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	IconURL     string          `json:"iconUrl"`
	RuleType    string          `json:"ruleType"`
	RuleValue   json.RawMessage `json:"ruleValue"`
}

// handleUpsertAchievement creates or replaces a definition.
// PUT /api/v1/admin/achievements/{id}
func (s *Server) handleUpsertAchievement(w http.ResponseWriter, r *http.Request) {
	var req upsertAchievementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON", err.Error())
		return
	}

	def, err := s.deps.UpsertAchievement.Handle(r.Context(), command.UpsertAchievementCommand{
		ID:          r.PathValue("id"),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IconURL:     req.IconURL,
		RuleType:    achievement.RuleType(req.RuleType),
		RuleValue:   req.RuleValue,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("achievement definition updated via admin API",
		logger.AchievementID(def.ID),
	)
	writeJSON(w, r, http.StatusOK, query.ToAchievementDTO(*def))
}

// ══════════════════════════════════════════════════════════════════════════════
// STATS HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// statsResponse is the body of GET /api/v1/stats.
type statsResponse struct {
	Uptime                string                             `json:"uptime"`
	Queue                 *messaging.EventQueueMetrics       `json:"queue,omitempty"`
	EventBus              *messaging.EventBusMetricsSnapshot `json:"eventBus,omitempty"`
	LeaderboardRecomputes *int64                             `json:"leaderboardRecomputes,omitempty"`
}

// handleGetStats returns ingestion and cache counters.
// GET /api/v1/stats
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Uptime: s.Uptime().Round(time.Second).String()}

	if s.deps.QueueMetrics != nil {
		m := s.deps.QueueMetrics.Metrics()
		resp.Queue = &m
	}
	if s.deps.BusMetrics != nil {
		if m := s.deps.BusMetrics.Metrics(); m != nil {
			snap := m.Snapshot()
			resp.EventBus = &snap
		}
	}
	if s.deps.Ranking != nil {
		n := s.deps.Ranking.Recomputes()
		resp.LeaderboardRecomputes = &n
	}

	writeJSON(w, r, http.StatusOK, resp)
}

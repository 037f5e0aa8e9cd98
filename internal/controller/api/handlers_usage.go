package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type trackUsageRequest struct {
	SessionID string `json:"session_id"`
}

type trackUsageResponse struct {
	Success      bool           `json:"success,omitempty"`
	SessionsUsed map[string]int `json:"sessions_used,omitempty"`
	LimitReached *bool          `json:"limit_reached,omitempty"`
	Message      string         `json:"message"`
}

func (s *Server) handleTrackSessionUsage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	// Учёт расхода доступен только авторизованным клиентам
	if strings.TrimSpace(r.Header.Get("Authorization")) == "" {
		writeError(w, http.StatusUnauthorized, "Missing authorization header")
		return
	}

	var req trackUsageRequest
	if err := parseJSON(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	raw := strings.TrimSpace(req.SessionID)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	sessionID, err := uuid.Parse(raw)
	if err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid session_id", err.Error())
		return
	}

	result, err := s.usage.TrackSession(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	fields := []zap.Field{
		zap.String("session_id", sessionID.String()),
		zap.Bool("tracked", result.Tracked),
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		fields = append(fields, zap.String("subject", claims.Subject))
	}
	s.logger.Info("Session usage request handled", fields...)

	if !result.Tracked {
		writeJSON(w, http.StatusOK, trackUsageResponse{Message: result.Message})
		return
	}

	limitReached := result.LimitReached
	writeJSON(w, http.StatusOK, trackUsageResponse{
		Success:      true,
		SessionsUsed: result.SessionsUsed,
		LimitReached: &limitReached,
		Message:      result.Message,
	})
}

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type subscriptionRequest struct {
	ClinicID string `json:"clinic_id"`
}

type subscriptionInfo struct {
	ID            *uuid.UUID `json:"id,omitempty"`
	Tier          string     `json:"tier"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	DaysRemaining *int       `json:"days_remaining,omitempty"`
}

type subscriptionResponse struct {
	HasActiveSubscription bool              `json:"has_active_subscription"`
	Message               string            `json:"message,omitempty"`
	Subscription          *subscriptionInfo `json:"subscription,omitempty"`
}

func (s *Server) handleCheckClinicSubscription(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	var req subscriptionRequest
	if r.Method == http.MethodGet {
		req.ClinicID = r.URL.Query().Get("clinic_id")
	} else if err := parseJSON(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	raw := strings.TrimSpace(req.ClinicID)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "clinic_id is required")
		return
	}

	clinicID, err := uuid.Parse(raw)
	if err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid clinic_id", err.Error())
		return
	}

	check, err := s.subscriptions.CheckClinic(r.Context(), clinicID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := subscriptionResponse{
		HasActiveSubscription: check.HasActive,
		Message:               check.Message,
	}

	switch {
	case check.HasActive:
		sub := check.Subscription
		days := check.DaysRemaining
		resp.Subscription = &subscriptionInfo{
			ID:            &sub.ID,
			Tier:          sub.Tier,
			StartsAt:      &sub.StartsAt,
			ExpiresAt:     sub.ExpiresAt,
			DaysRemaining: &days,
		}
	case check.Expired:
		resp.Subscription = &subscriptionInfo{
			Tier:      check.Subscription.Tier,
			ExpiresAt: check.Subscription.ExpiresAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

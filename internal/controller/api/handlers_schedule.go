package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type scheduleRequest struct {
	PatientPackageID string `json:"patient_package_id"`
}

type failedBatch struct {
	Index int    `json:"index"`
	Size  int    `json:"size"`
	Error string `json:"error"`
}

type scheduleResponse struct {
	Success         bool          `json:"success"`
	SessionsCreated int           `json:"sessions_created"`
	Message         string        `json:"message"`
	FailedBatches   []failedBatch `json:"failed_batches,omitempty"`
}

func (s *Server) handleSchedulePackageSessions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req scheduleRequest
	if err := parseJSON(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	raw := strings.TrimSpace(req.PatientPackageID)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "patient_package_id is required")
		return
	}

	patientPackageID, err := uuid.Parse(raw)
	if err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "Invalid patient_package_id", err.Error())
		return
	}

	result, err := s.scheduler.SchedulePackage(r.Context(), patientPackageID)
	if err != nil {
		if errors.Is(err, service.ErrNoScheduleConfigs) {
			writeErrorDetails(w, http.StatusBadRequest, "No schedule configurations found", fmt.Sprintf(
				"No schedule configurations found for patient_package_id: %s. Please ensure you have saved the schedule configuration before generating sessions.",
				patientPackageID))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	resp := scheduleResponse{
		Success:         true,
		SessionsCreated: result.Created,
		Message:         result.Message(),
	}
	for _, b := range result.FailedBatches {
		resp.FailedBatches = append(resp.FailedBatches, failedBatch{Index: b.Index, Size: b.Size, Error: b.Err.Error()})
	}

	s.logger.Info("Package sessions scheduled via API",
		zap.String("patient_package_id", patientPackageID.String()),
		zap.Int("sessions_created", result.Created))

	writeJSON(w, http.StatusOK, resp)
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"go.uber.org/zap"
)

const noAssignmentsMessage = "Patient does not have any therapists assigned for this package. Please assign therapists first."

// writeServiceError переводит ошибку сервиса в HTTP-ответ
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPackageIDRequired):
		writeError(w, http.StatusBadRequest, "patient_package_id is required")
	case errors.Is(err, service.ErrPackageNotFound):
		writeError(w, http.StatusNotFound, "Patient package not found")
	case errors.Is(err, service.ErrExpiryNotSet):
		writeError(w, http.StatusBadRequest, "Package expiration date not set")
	case errors.Is(err, service.ErrNoAssignments):
		writeError(w, http.StatusBadRequest, noAssignmentsMessage)
	case errors.Is(err, service.ErrNoScheduleConfigs):
		writeError(w, http.StatusBadRequest, "No schedule configurations found")
	case errors.Is(err, service.ErrSessionIDRequired):
		writeError(w, http.StatusBadRequest, "session_id is required")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrClinicIDRequired):
		writeError(w, http.StatusBadRequest, "clinic_id is required")
	default:
		var storeErr *service.StoreError
		if errors.As(err, &storeErr) {
			s.logger.Error("Store failure",
				zap.String("path", r.URL.Path),
				zap.String("message", storeErr.Message),
				zap.Error(storeErr.Err))
			writeErrorDetails(w, http.StatusInternalServerError, storeErr.Message, storeErr.Err.Error())
			return
		}

		s.logger.Error("Unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: err.Error(),
			Type:  fmt.Sprintf("%T", err),
		})
	}
}

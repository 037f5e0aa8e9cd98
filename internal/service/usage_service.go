package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UsageService учитывает проведённые занятия в расходе пакета
type UsageService struct {
	sessions SessionStore
	packages PackageStore
	details  TherapyDetailStore
	logger   *zap.Logger
}

func NewUsageService(sessions SessionStore, packages PackageStore, details TherapyDetailStore, logger *zap.Logger) *UsageService {
	return &UsageService{
		sessions: sessions,
		packages: packages,
		details:  details,
		logger:   logger,
	}
}

// UsageResult итог учёта занятия
type UsageResult struct {
	Tracked      bool
	SessionsUsed map[string]int
	LimitReached bool
	Message      string
}

// TrackSession увеличивает счётчик расхода пакета по типу терапии занятия.
// Учитываются только подтверждённые и проведённые занятия, привязанные к пакету.
func (s *UsageService) TrackSession(ctx context.Context, sessionID uuid.UUID) (*UsageResult, error) {
	if sessionID == uuid.Nil {
		return nil, ErrSessionIDRequired
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, storeError("Failed to fetch session", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if !session.Status.Counted() {
		return &UsageResult{Message: "Session status does not require tracking"}, nil
	}

	if session.PatientPackageID == nil || session.TherapyTypeID == nil {
		return &UsageResult{Message: "Session is not linked to a package"}, nil
	}

	patientPackageID := *session.PatientPackageID
	therapyTypeID := *session.TherapyTypeID

	pkg, err := s.packages.GetPatientPackage(ctx, patientPackageID)
	if err != nil {
		return nil, storeError("Failed to fetch patient package", err)
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}

	used, err := s.packages.IncrementSessionsUsed(ctx, patientPackageID, therapyTypeID)
	if err != nil {
		return nil, storeError("Failed to update session usage", err)
	}
	if used == nil {
		return nil, ErrPackageNotFound
	}

	count := used[therapyTypeID.String()]
	result := &UsageResult{
		Tracked:      true,
		SessionsUsed: used,
	}

	// Лимит пакета - справочная информация, ошибка каталога не мешает учёту
	limit := "N/A"
	details, err := s.details.ListTherapyDetails(ctx, pkg.PackageID)
	if err != nil {
		s.logger.Warn("Failed to fetch therapy details for usage limit",
			zap.String("package_id", pkg.PackageID.String()),
			zap.Error(err))
	}
	for _, d := range details {
		if d.TherapyTypeID != therapyTypeID {
			continue
		}
		limit = strconv.Itoa(d.SessionCount)
		result.LimitReached = count >= d.SessionCount
		break
	}

	result.Message = fmt.Sprintf("Session usage updated. %d/%s sessions used for this therapy type.", count, limit)

	s.logger.Info("Session usage tracked",
		zap.String("session_id", sessionID.String()),
		zap.String("patient_package_id", patientPackageID.String()),
		zap.String("therapy_type_id", therapyTypeID.String()),
		zap.Int("sessions_used", count),
		zap.Bool("limit_reached", result.LimitReached))

	return result, nil
}


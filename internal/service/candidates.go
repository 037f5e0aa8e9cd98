package service

import (
	"context"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/recurrence"
	"go.uber.org/zap"
)

// resolveCandidates раскрывает каждое правило в занятия-кандидаты.
// Правило без активного терапевта пропускается, остальные продолжают работу.
func (s *SchedulingService) resolveCandidates(
	ctx context.Context,
	sc *schedulingContext,
	configs []*model.ScheduleConfig,
	result *ScheduleResult,
	logger *zap.Logger,
) []*model.Session {
	pkg := sc.pkg
	candidates := make([]*model.Session, 0)

	for _, cfg := range configs {
		cfgLogger := logger.With(
			zap.String("config_id", cfg.ID.String()),
			zap.String("therapy_type_id", cfg.TherapyTypeID.String()),
			zap.String("therapy_name", therapyName(cfg)),
		)

		assignment, err := s.assignments.FindActiveAssignment(ctx, pkg.PatientID, cfg.TherapyTypeID, pkg.ID)
		if err != nil {
			cfgLogger.Error("Failed to fetch therapist assignment, skipping", zap.Error(err))
			result.skip(cfg, "assignment lookup failed: "+err.Error())
			continue
		}
		if assignment == nil {
			cfgLogger.Warn("No therapist assigned for therapy type, skipping sessions")
			result.skip(cfg, "no active therapist assignment")
			continue
		}

		duration := sc.durations.Duration(cfg.TherapyTypeID)

		rule := recurrence.Rule{
			Weekdays: cfg.Weekdays(),
			Hour:     cfg.StartHour,
			Minute:   cfg.StartMinute,
		}
		instants, err := s.engine.Expand(rule, pkg.StartsAt, sc.expiresAt)
		if err != nil {
			cfgLogger.Warn("Invalid schedule config, skipping", zap.Error(err))
			result.skip(cfg, "invalid schedule config: "+err.Error())
			continue
		}

		therapyTypeID := cfg.TherapyTypeID
		patientPackageID := pkg.ID
		for _, instant := range instants {
			candidates = append(candidates, &model.Session{
				PatientID:        pkg.PatientID,
				TherapistID:      assignment.TherapistID,
				ClinicID:         pkg.ClinicID,
				PackageID:        pkg.PackageID,
				TherapyTypeID:    &therapyTypeID,
				PatientPackageID: &patientPackageID,
				Timestamp:        instant,
				Duration:         duration,
				Status:           model.SessionStatusPending,
				IsConsultation:   false,
				Mode:             model.SessionModeInPerson,
			})
		}

		cfgLogger.Debug("Expanded schedule config",
			zap.String("therapist_id", assignment.TherapistID.String()),
			zap.Int("duration", duration),
			zap.Int("sessions", len(instants)))
	}

	result.Candidates = len(candidates)
	return candidates
}

// filterDuplicates отбрасывает кандидатов, уже существующих в хранилище
// или повторяющихся внутри запуска.
//
// Если проверка существования не удалась, кандидат остаётся: уникальный индекс
// хранилища пропустит точный дубликат при вставке.
func (s *SchedulingService) filterDuplicates(
	ctx context.Context,
	candidates []*model.Session,
	result *ScheduleResult,
	logger *zap.Logger,
) []*model.Session {
	seen := make(map[model.SessionKey]struct{}, len(candidates))
	fresh := make([]*model.Session, 0, len(candidates))

	for _, candidate := range candidates {
		key := candidate.Key()
		if _, ok := seen[key]; ok {
			result.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		exists, err := s.sessions.SessionExists(ctx, candidate.PatientID, candidate.TherapistID, candidate.Timestamp)
		if err != nil {
			result.LookupErrors++
			logger.Warn("Failed to check session existence",
				zap.String("therapist_id", candidate.TherapistID.String()),
				zap.Time("timestamp", candidate.Timestamp),
				zap.Error(err))
			fresh = append(fresh, candidate)
			continue
		}

		if exists {
			result.Duplicates++
			continue
		}

		fresh = append(fresh, candidate)
	}

	return fresh
}

func (r *ScheduleResult) skip(cfg *model.ScheduleConfig, reason string) {
	r.SkippedConfigs = append(r.SkippedConfigs, SkippedConfig{
		ConfigID:      cfg.ID,
		TherapyTypeID: cfg.TherapyTypeID,
		Reason:        reason,
	})
}

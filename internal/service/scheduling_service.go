package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/recurrence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBatchSize размер пачки при вставке занятий
const DefaultBatchSize = 500

// SchedulingOptions параметры генератора занятий
type SchedulingOptions struct {
	// Location гражданское время, в котором раскрываются правила; nil - UTC
	Location  *time.Location
	BatchSize int
}

// SchedulingService раскрывает правила повторения пакета в конкретные занятия
type SchedulingService struct {
	packages    PackageStore
	assignments AssignmentStore
	configs     ScheduleConfigStore
	details     TherapyDetailStore
	sessions    SessionStore
	engine      *recurrence.Engine
	batchSize   int
	logger      *zap.Logger
}

func NewSchedulingService(
	packages PackageStore,
	assignments AssignmentStore,
	configs ScheduleConfigStore,
	details TherapyDetailStore,
	sessions SessionStore,
	opts SchedulingOptions,
	logger *zap.Logger,
) *SchedulingService {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &SchedulingService{
		packages:    packages,
		assignments: assignments,
		configs:     configs,
		details:     details,
		sessions:    sessions,
		engine:      recurrence.NewEngine(opts.Location),
		batchSize:   batchSize,
		logger:      logger,
	}
}

// SkippedConfig правило, которое не дало ни одного кандидата
type SkippedConfig struct {
	ConfigID      uuid.UUID
	TherapyTypeID uuid.UUID
	Reason        string
}

// BatchFailure пачка, вставка которой не удалась
type BatchFailure struct {
	Index int
	Size  int
	Err   error
}

// ScheduleResult итог одного запуска генератора
type ScheduleResult struct {
	PatientPackageID uuid.UUID
	Candidates       int // всего сгенерировано по правилам
	Duplicates       int // отброшено как уже существующие
	LookupErrors     int // проверка существования не удалась, решение за хранилищем
	Conflicts        int // пропущено хранилищем при вставке
	Created          int
	SkippedConfigs   []SkippedConfig
	FailedBatches    []BatchFailure
}

// Message краткое описание результата для клиента
func (r *ScheduleResult) Message() string {
	msg := fmt.Sprintf("Successfully created %d sessions", r.Created)
	if len(r.FailedBatches) > 0 {
		failed := 0
		for _, b := range r.FailedBatches {
			failed += b.Size
		}
		msg += fmt.Sprintf(" (%d batches with %d sessions failed)", len(r.FailedBatches), failed)
	}
	return msg
}

// schedulingContext всё, что нужно для раскрытия правил одного пакета
type schedulingContext struct {
	pkg       *model.PatientPackage
	expiresAt time.Time
	durations model.DurationCatalog
}

// SchedulePackage генерирует недостающие занятия для купленного пакета.
// Повторный запуск для уже расписанного пакета ничего не создаёт.
func (s *SchedulingService) SchedulePackage(ctx context.Context, patientPackageID uuid.UUID) (*ScheduleResult, error) {
	if patientPackageID == uuid.Nil {
		return nil, ErrPackageIDRequired
	}

	logger := s.logger.With(zap.String("patient_package_id", patientPackageID.String()))
	logger.Info("Scheduling package sessions")

	sc, err := s.loadContext(ctx, patientPackageID, logger)
	if err != nil {
		return nil, err
	}

	configs, err := s.loadRecurrenceRules(ctx, patientPackageID, logger)
	if err != nil {
		return nil, err
	}

	result := &ScheduleResult{PatientPackageID: patientPackageID}

	candidates := s.resolveCandidates(ctx, sc, configs, result, logger)
	fresh := s.filterDuplicates(ctx, candidates, result, logger)
	s.commitSessions(ctx, fresh, result, logger)

	logger.Info("Package sessions scheduled",
		zap.Int("candidates", result.Candidates),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("lookup_errors", result.LookupErrors),
		zap.Int("conflicts", result.Conflicts),
		zap.Int("skipped_configs", len(result.SkippedConfigs)),
		zap.Int("failed_batches", len(result.FailedBatches)),
		zap.Int("created", result.Created),
	)

	return result, nil
}

// ScheduleAllActive запускает генератор для всех пакетов с неистёкшим сроком.
// Ошибка одного пакета не останавливает остальные.
func (s *SchedulingService) ScheduleAllActive(ctx context.Context, at time.Time) (int, error) {
	ids, err := s.packages.ListSchedulablePackageIDs(ctx, at)
	if err != nil {
		return 0, fmt.Errorf("list schedulable packages: %w", err)
	}

	total := 0
	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}

		result, err := s.SchedulePackage(ctx, id)
		if err != nil {
			failed++
			s.logger.Warn("Failed to schedule package",
				zap.String("patient_package_id", id.String()),
				zap.Error(err))
			continue
		}
		total += result.Created
	}

	s.logger.Info("Scheduled all active packages",
		zap.Int("packages", len(ids)),
		zap.Int("failed_packages", failed),
		zap.Int("sessions_created", total))

	return total, nil
}

// loadContext загружает пакет, проверяет назначения терапевтов и каталог длительностей
func (s *SchedulingService) loadContext(ctx context.Context, patientPackageID uuid.UUID, logger *zap.Logger) (*schedulingContext, error) {
	pkg, err := s.packages.GetPatientPackage(ctx, patientPackageID)
	if err != nil {
		return nil, storeError("Failed to fetch patient package", err)
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}

	if pkg.ExpiresAt == nil {
		return nil, ErrExpiryNotSet
	}

	assignments, err := s.assignments.ListActiveAssignments(ctx, pkg.PatientID, pkg.ID)
	if err != nil {
		return nil, storeError("Error checking therapist assignments", err)
	}
	if len(assignments) == 0 {
		return nil, ErrNoAssignments
	}

	logger.Debug("Found therapist assignments", zap.Int("count", len(assignments)))

	details, err := s.details.ListTherapyDetails(ctx, pkg.PackageID)
	if err != nil {
		return nil, storeError("Failed to fetch therapy details", err)
	}

	return &schedulingContext{
		pkg:       pkg,
		expiresAt: *pkg.ExpiresAt,
		durations: model.NewDurationCatalog(details),
	}, nil
}

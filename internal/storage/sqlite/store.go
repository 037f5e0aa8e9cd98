// Package sqlite хранилище на SQLite через gorm для локального запуска без PostgreSQL.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ service.Store = (*Store)(nil)

// Open открывает файл базы и приводит схему к актуальной
func Open(path string, log *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	log.Info("SQLite store opened", zap.String("path", path))
	return s, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&patientPackageRow{},
		&assignmentRow{},
		&scheduleConfigRow{},
		&therapyRow{},
		&therapyDetailRow{},
		&sessionRow{},
		&subscriptionRow{},
	)
	if err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return nil
}

// Close закрывает соединение с базой
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// --- PackageStore ---

func (s *Store) GetPatientPackage(ctx context.Context, id uuid.UUID) (*model.PatientPackage, error) {
	var row patientPackageRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get patient package: %w", err)
	}
	return row.toModel(), nil
}

func (s *Store) ListSchedulablePackageIDs(ctx context.Context, at time.Time) ([]uuid.UUID, error) {
	var rows []patientPackageRow
	if err := s.db.WithContext(ctx).Where("expires_at IS NOT NULL").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list schedulable packages: %w", err)
	}

	// Сравниваем время в Go: текстовое представление не гарантирует порядок
	var ids []uuid.UUID
	for _, row := range rows {
		if !row.ExpiresAt.Before(at) {
			ids = append(ids, row.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (s *Store) IncrementSessionsUsed(ctx context.Context, id, therapyTypeID uuid.UUID) (map[string]int, error) {
	var used map[string]int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row patientPackageRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if row.SessionsUsed == nil {
			row.SessionsUsed = make(map[string]int)
		}
		row.SessionsUsed[therapyTypeID.String()]++
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		used = row.SessionsUsed
		return nil
	})
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("increment sessions used: %w", err)
	}
	return used, nil
}

// --- AssignmentStore ---

func (s *Store) ListActiveAssignments(ctx context.Context, patientID, patientPackageID uuid.UUID) ([]*model.TherapistAssignment, error) {
	var rows []assignmentRow
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND patient_package_id = ? AND is_active = ?", patientID, patientPackageID, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}

	out := make([]*model.TherapistAssignment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindActiveAssignment(ctx context.Context, patientID, therapyTypeID, patientPackageID uuid.UUID) (*model.TherapistAssignment, error) {
	var rows []assignmentRow
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND therapy_type_id = ? AND patient_package_id = ? AND is_active = ?",
			patientID, therapyTypeID, patientPackageID, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find active assignment: %w", err)
	}

	var latest *assignmentRow
	for i := range rows {
		if latest == nil || rows[i].CreatedAt.After(latest.CreatedAt) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.toModel(), nil
}

// --- ScheduleConfigStore ---

// FetchConfigsEnriched возвращает все правила пакета; терапия подставляется, если есть в каталоге
func (s *Store) FetchConfigsEnriched(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	configs, err := s.FetchConfigsRaw(ctx, patientPackageID)
	if err != nil || len(configs) == 0 {
		return configs, err
	}

	ids := make([]uuid.UUID, 0, len(configs))
	for _, cfg := range configs {
		ids = append(ids, cfg.TherapyTypeID)
	}

	var therapies []therapyRow
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&therapies).Error; err != nil {
		return nil, fmt.Errorf("fetch therapies for schedule configs: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Therapy, len(therapies))
	for _, t := range therapies {
		byID[t.ID] = &model.Therapy{ID: t.ID, Name: t.Name}
	}

	for _, cfg := range configs {
		cfg.Therapy = byID[cfg.TherapyTypeID]
	}
	return configs, nil
}

func (s *Store) FetchConfigsRaw(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	var rows []scheduleConfigRow
	err := s.db.WithContext(ctx).
		Where("patient_package_id = ?", patientPackageID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch schedule configs: %w", err)
	}

	configs := make([]*model.ScheduleConfig, 0, len(rows))
	for _, row := range rows {
		hour, minute, err := model.ParseTimeSlot(row.TimeSlot)
		if err != nil {
			s.logger.Warn("Skipping schedule config with invalid time slot",
				zap.String("config_id", row.ID.String()),
				zap.String("time_slot", row.TimeSlot),
				zap.Error(err))
			continue
		}
		configs = append(configs, &model.ScheduleConfig{
			ID:               row.ID,
			PatientPackageID: row.PatientPackageID,
			TherapyTypeID:    row.TherapyTypeID,
			DaysOfWeek:       row.DaysOfWeek,
			StartHour:        hour,
			StartMinute:      minute,
		})
	}
	return configs, nil
}

func (s *Store) GetTherapy(ctx context.Context, id uuid.UUID) (*model.Therapy, error) {
	var row therapyRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get therapy: %w", err)
	}
	return &model.Therapy{ID: row.ID, Name: row.Name}, nil
}

// --- TherapyDetailStore ---

func (s *Store) ListTherapyDetails(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error) {
	var rows []therapyDetailRow
	if err := s.db.WithContext(ctx).Where("package_id = ?", packageID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list therapy details: %w", err)
	}

	details := make([]model.TherapyDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, model.TherapyDetail{
			PackageID:              row.PackageID,
			TherapyTypeID:          row.TherapyTypeID,
			SessionCount:           row.SessionCount,
			SessionDurationMinutes: row.SessionDurationMinutes,
		})
	}
	return details, nil
}

// --- SessionStore ---

func (s *Store) SessionExists(ctx context.Context, patientID, therapistID uuid.UUID, timestamp time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&sessionRow{}).
		Where("patient_id = ? AND therapist_id = ? AND timestamp = ?", patientID, therapistID, timestamp.UTC()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check session exists: %w", err)
	}
	return count > 0, nil
}

// InsertSessions вставляет пачку одним INSERT ... ON CONFLICT DO NOTHING
func (s *Store) InsertSessions(ctx context.Context, sessions []*model.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}

	rows := make([]sessionRow, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, sessionRowFromModel(session))
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("insert sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *Store) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return row.toModel(), nil
}

// --- SubscriptionStore ---

func (s *Store) GetLatestActiveSubscription(ctx context.Context, clinicID uuid.UUID) (*model.ClinicSubscription, error) {
	var rows []subscriptionRow
	err := s.db.WithContext(ctx).
		Where("clinic_id = ? AND status = ?", clinicID, string(model.SubscriptionStatusActive)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get latest active subscription: %w", err)
	}

	var latest *subscriptionRow
	for i := range rows {
		if latest == nil || rows[i].ExpiresAt.After(latest.ExpiresAt) {
			latest = &rows[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.toModel(), nil
}

func (s *Store) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus) error {
	err := s.db.WithContext(ctx).Model(&subscriptionRow{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

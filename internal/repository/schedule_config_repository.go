package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleConfigRepository правила повторения занятий пакета
type ScheduleConfigRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewScheduleConfigRepository создаёт новый репозиторий
func NewScheduleConfigRepository(b *base.Repository, logger *zap.Logger) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{
		Repository: b,
		logger:     logger,
	}
}

// FetchConfigsEnriched получает правила вместе с названием терапии.
// Правило без записи в каталоге терапий возвращается с Therapy == nil.
func (r *ScheduleConfigRepository) FetchConfigsEnriched(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	query := `
		SELECT c.id, c.patient_package_id, c.therapy_type_id, c.days_of_week, c.time_slot::text, t.id, t.name
		FROM package_schedule_config c
		LEFT JOIN therapy t ON t.id = c.therapy_type_id
		WHERE c.patient_package_id = $1
		ORDER BY c.created_at
	`

	rows, err := r.Query(ctx, query, patientPackageID)
	if err != nil {
		return nil, fmt.Errorf("fetch enriched schedule configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.ScheduleConfig
	for rows.Next() {
		var (
			cfg      model.ScheduleConfig
			days     []int32
			timeSlot string
			therapyID   *uuid.UUID
			therapyName *string
		)
		err := rows.Scan(
			&cfg.ID,
			&cfg.PatientPackageID,
			&cfg.TherapyTypeID,
			&days,
			&timeSlot,
			&therapyID,
			&therapyName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan enriched schedule config: %w", err)
		}
		if !r.fill(&cfg, days, timeSlot) {
			continue
		}
		if therapyID != nil {
			cfg.Therapy = &model.Therapy{ID: *therapyID}
			if therapyName != nil {
				cfg.Therapy.Name = *therapyName
			}
		}
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// FetchConfigsRaw получает правила без соединения с каталогом терапий
func (r *ScheduleConfigRepository) FetchConfigsRaw(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error) {
	query := `
		SELECT id, patient_package_id, therapy_type_id, days_of_week, time_slot::text
		FROM package_schedule_config
		WHERE patient_package_id = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, patientPackageID)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule configs: %w", err)
	}
	defer rows.Close()

	var configs []*model.ScheduleConfig
	for rows.Next() {
		var (
			cfg      model.ScheduleConfig
			days     []int32
			timeSlot string
		)
		if err := rows.Scan(&cfg.ID, &cfg.PatientPackageID, &cfg.TherapyTypeID, &days, &timeSlot); err != nil {
			return nil, fmt.Errorf("scan schedule config: %w", err)
		}
		if !r.fill(&cfg, days, timeSlot) {
			continue
		}
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// GetTherapy получает тип терапии по ID
func (r *ScheduleConfigRepository) GetTherapy(ctx context.Context, id uuid.UUID) (*model.Therapy, error) {
	query := `SELECT id, name FROM therapy WHERE id = $1`

	var therapy model.Therapy
	err := r.QueryRow(ctx, query, id).Scan(&therapy.ID, &therapy.Name)
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get therapy: %w", err)
	}

	return &therapy, nil
}

// fill переносит дни недели и время в правило. Строка с нечитаемым временем пропускается.
func (r *ScheduleConfigRepository) fill(cfg *model.ScheduleConfig, days []int32, timeSlot string) bool {
	hour, minute, err := model.ParseTimeSlot(timeSlot)
	if err != nil {
		r.logger.Warn("Skipping schedule config with invalid time slot",
			zap.String("config_id", cfg.ID.String()),
			zap.String("time_slot", timeSlot),
			zap.Error(err))
		return false
	}

	cfg.StartHour = hour
	cfg.StartMinute = minute
	cfg.DaysOfWeek = make([]int, 0, len(days))
	for _, d := range days {
		cfg.DaysOfWeek = append(cfg.DaysOfWeek, int(d))
	}
	return true
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	*base.Repository
}

func NewSessionRepository(b *base.Repository) *SessionRepository {
	return &SessionRepository{Repository: b}
}

// SessionExists проверяет, есть ли уже занятие пациента у терапевта на это время
func (r *SessionRepository) SessionExists(ctx context.Context, patientID, therapistID uuid.UUID, timestamp time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM session
			WHERE patient_id = $1
			  AND therapist_id = $2
			  AND "timestamp" = $3
		)
	`

	var exists bool
	if err := r.QueryRow(ctx, query, patientID, therapistID, timestamp).Scan(&exists); err != nil {
		return false, fmt.Errorf("check session exists: %w", err)
	}

	return exists, nil
}

// InsertSessions вставляет пачку занятий одной транзакцией.
// Конфликт по (patient_id, therapist_id, timestamp) пропускается, возвращается число вставленных строк.
func (r *SessionRepository) InsertSessions(ctx context.Context, sessions []*model.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO session (patient_id, therapist_id, clinic_id, package_id, therapy_type_id, patient_package_id,
		                     "timestamp", duration, status, is_consultation, mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (patient_id, therapist_id, "timestamp") DO NOTHING
	`

	inserted := 0
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, s := range sessions {
			batch.Queue(query,
				s.PatientID,
				s.TherapistID,
				s.ClinicID,
				s.PackageID,
				s.TherapyTypeID,
				s.PatientPackageID,
				s.Timestamp,
				s.Duration,
				s.Status,
				s.IsConsultation,
				s.Mode,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for range sessions {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("insert session: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("insert sessions: %w", err)
	}

	return inserted, nil
}

// GetSession получает занятие по ID
func (r *SessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, patient_id, therapist_id, clinic_id, package_id, therapy_type_id, patient_package_id,
		       "timestamp", duration, status, is_consultation, mode, created_at
		FROM session
		WHERE id = $1
	`

	var s model.Session
	err := r.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.PatientID,
		&s.TherapistID,
		&s.ClinicID,
		&s.PackageID,
		&s.TherapyTypeID,
		&s.PatientPackageID,
		&s.Timestamp,
		&s.Duration,
		&s.Status,
		&s.IsConsultation,
		&s.Mode,
		&s.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	return &s, nil
}

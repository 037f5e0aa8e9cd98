package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AssignmentRepository назначения терапевтов на пакет
type AssignmentRepository struct {
	*base.Repository
}

func NewAssignmentRepository(b *base.Repository) *AssignmentRepository {
	return &AssignmentRepository{Repository: b}
}

const assignmentColumns = `id, patient_id, therapist_id, therapy_type_id, patient_package_id, is_active, created_at`

// ListActiveAssignments активные назначения пациента в рамках пакета
func (r *AssignmentRepository) ListActiveAssignments(ctx context.Context, patientID, patientPackageID uuid.UUID) ([]*model.TherapistAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM patient_therapist_assignment
		WHERE patient_id = $1
		  AND patient_package_id = $2
		  AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, patientID, patientPackageID)
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*model.TherapistAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

// FindActiveAssignment последнее по времени создания активное назначение на тип терапии
func (r *AssignmentRepository) FindActiveAssignment(ctx context.Context, patientID, therapyTypeID, patientPackageID uuid.UUID) (*model.TherapistAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM patient_therapist_assignment
		WHERE patient_id = $1
		  AND therapy_type_id = $2
		  AND patient_package_id = $3
		  AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`

	a, err := scanAssignment(r.QueryRow(ctx, query, patientID, therapyTypeID, patientPackageID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active assignment: %w", err)
	}

	return a, nil
}

func scanAssignment(row pgx.Row) (*model.TherapistAssignment, error) {
	var a model.TherapistAssignment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.TherapistID,
		&a.TherapyTypeID,
		&a.PatientPackageID,
		&a.IsActive,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

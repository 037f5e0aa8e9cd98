package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

// PackageRepository купленные пакеты пациентов
type PackageRepository struct {
	*base.Repository
}

func NewPackageRepository(b *base.Repository) *PackageRepository {
	return &PackageRepository{Repository: b}
}

// GetPatientPackage получает пакет вместе с клиникой пациента и названием пакета из каталога
func (r *PackageRepository) GetPatientPackage(ctx context.Context, id uuid.UUID) (*model.PatientPackage, error) {
	query := `
		SELECT pp.id, pp.package_id, pp.patient_id, p.clinic_id, COALESCE(pk.name, ''),
		       pp.starts_at, pp.expires_at, COALESCE(pp.sessions_used, '{}'::jsonb), pp.created_at
		FROM patient_package pp
		JOIN patient p ON p.id = pp.patient_id
		LEFT JOIN package pk ON pk.id = pp.package_id
		WHERE pp.id = $1
	`

	var pkg model.PatientPackage
	err := r.QueryRow(ctx, query, id).Scan(
		&pkg.ID,
		&pkg.PackageID,
		&pkg.PatientID,
		&pkg.ClinicID,
		&pkg.PackageName,
		&pkg.StartsAt,
		&pkg.ExpiresAt,
		&pkg.SessionsUsed,
		&pkg.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get patient package: %w", err)
	}

	return &pkg, nil
}

// ListSchedulablePackageIDs пакеты со сроком действия не раньше at
func (r *PackageRepository) ListSchedulablePackageIDs(ctx context.Context, at time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM patient_package
		WHERE expires_at IS NOT NULL
		  AND expires_at >= $1
		ORDER BY id
	`

	rows, err := r.Query(ctx, query, at)
	if err != nil {
		return nil, fmt.Errorf("list schedulable packages: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan package id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// IncrementSessionsUsed атомарно увеличивает счётчик по типу терапии.
// Возвращает nil, nil если пакета нет.
func (r *PackageRepository) IncrementSessionsUsed(ctx context.Context, id, therapyTypeID uuid.UUID) (map[string]int, error) {
	query := `
		UPDATE patient_package
		SET sessions_used = jsonb_set(
			COALESCE(sessions_used, '{}'::jsonb),
			ARRAY[$2::text],
			to_jsonb(COALESCE((sessions_used ->> $2::text)::int, 0) + 1)
		)
		WHERE id = $1
		RETURNING sessions_used
	`

	var used map[string]int
	err := r.QueryRow(ctx, query, id, therapyTypeID.String()).Scan(&used)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("increment sessions used: %w", err)
	}

	return used, nil
}

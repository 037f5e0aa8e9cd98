package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

// TherapyDetailRepository состав пакетов каталога
type TherapyDetailRepository struct {
	*base.Repository
}

func NewTherapyDetailRepository(b *base.Repository) *TherapyDetailRepository {
	return &TherapyDetailRepository{Repository: b}
}

// ListTherapyDetails количество и длительность занятий по типам терапии пакета
func (r *TherapyDetailRepository) ListTherapyDetails(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error) {
	query := `
		SELECT package_id, therapy_type_id, COALESCE(session_count, 0), COALESCE(session_duration_minutes, 0)
		FROM package_therapy_details
		WHERE package_id = $1
	`

	rows, err := r.Query(ctx, query, packageID)
	if err != nil {
		return nil, fmt.Errorf("list therapy details: %w", err)
	}
	defer rows.Close()

	var details []model.TherapyDetail
	for rows.Next() {
		var d model.TherapyDetail
		if err := rows.Scan(&d.PackageID, &d.TherapyTypeID, &d.SessionCount, &d.SessionDurationMinutes); err != nil {
			return nil, fmt.Errorf("scan therapy detail: %w", err)
		}
		details = append(details, d)
	}

	return details, rows.Err()
}

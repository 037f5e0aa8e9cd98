package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/google/uuid"
)

// SubscriptionRepository подписки клиник
type SubscriptionRepository struct {
	*base.Repository
}

func NewSubscriptionRepository(b *base.Repository) *SubscriptionRepository {
	return &SubscriptionRepository{Repository: b}
}

// GetLatestActiveSubscription активная подписка клиники с самым поздним сроком
func (r *SubscriptionRepository) GetLatestActiveSubscription(ctx context.Context, clinicID uuid.UUID) (*model.ClinicSubscription, error) {
	query := `
		SELECT id, clinic_id, subscription_tier, status, starts_at, expires_at, created_at
		FROM clinic_subscription
		WHERE clinic_id = $1
		  AND status = 'active'
		ORDER BY expires_at DESC
		LIMIT 1
	`

	var sub model.ClinicSubscription
	err := r.QueryRow(ctx, query, clinicID).Scan(
		&sub.ID,
		&sub.ClinicID,
		&sub.Tier,
		&sub.Status,
		&sub.StartsAt,
		&sub.ExpiresAt,
		&sub.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest active subscription: %w", err)
	}

	return &sub, nil
}

// UpdateSubscriptionStatus меняет статус подписки
func (r *SubscriptionRepository) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus) error {
	query := `UPDATE clinic_subscription SET status = $2 WHERE id = $1`

	if _, err := r.ExecAffected(ctx, query, id, status); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

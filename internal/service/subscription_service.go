package service

import (
	"context"
	"math"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscriptionService проверяет подписку клиники
type SubscriptionService struct {
	store  SubscriptionStore
	now    func() time.Time
	logger *zap.Logger
}

func NewSubscriptionService(store SubscriptionStore, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:  store,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock подменяет источник текущего времени
func (s *SubscriptionService) WithClock(now func() time.Time) *SubscriptionService {
	s.now = now
	return s
}

// SubscriptionCheck результат проверки подписки
type SubscriptionCheck struct {
	HasActive     bool
	Expired       bool
	Subscription  *model.ClinicSubscription
	DaysRemaining int
	Message       string
}

// CheckClinic ищет последнюю активную подписку клиники.
// Истёкшая подписка помечается как expired.
func (s *SubscriptionService) CheckClinic(ctx context.Context, clinicID uuid.UUID) (*SubscriptionCheck, error) {
	if clinicID == uuid.Nil {
		return nil, ErrClinicIDRequired
	}

	sub, err := s.store.GetLatestActiveSubscription(ctx, clinicID)
	if err != nil {
		return nil, storeError("Database error", err)
	}
	if sub == nil {
		return &SubscriptionCheck{Message: "No active subscription found"}, nil
	}

	now := s.now()
	if sub.ExpiresAt.Before(now) {
		if err := s.store.UpdateSubscriptionStatus(ctx, sub.ID, model.SubscriptionStatusExpired); err != nil {
			s.logger.Warn("Failed to mark subscription expired",
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
		} else {
			sub.Status = model.SubscriptionStatusExpired
		}

		s.logger.Info("Clinic subscription expired",
			zap.String("clinic_id", clinicID.String()),
			zap.String("subscription_id", sub.ID.String()))

		return &SubscriptionCheck{
			Expired:      true,
			Subscription: sub,
			Message:      "Subscription has expired",
		}, nil
	}

	return &SubscriptionCheck{
		HasActive:     true,
		Subscription:  sub,
		DaysRemaining: int(math.Ceil(sub.ExpiresAt.Sub(now).Hours() / 24)),
	}, nil
}

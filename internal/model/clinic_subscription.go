package model

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

type ClinicSubscription struct {
	ID        uuid.UUID          `json:"id"`
	ClinicID  uuid.UUID          `json:"clinic_id"`
	Tier      string             `json:"subscription_tier"`
	Status    SubscriptionStatus `json:"status"`
	StartsAt  time.Time          `json:"starts_at"`
	ExpiresAt time.Time          `json:"expires_at"`
	CreatedAt time.Time          `json:"created_at"`
}

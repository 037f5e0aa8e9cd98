package handlers

import (
	"context"

	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PackageScheduler interface {
	SchedulePackage(ctx context.Context, patientPackageID uuid.UUID) (*service.ScheduleResult, error)
}

type UsageTracker interface {
	TrackSession(ctx context.Context, sessionID uuid.UUID) (*service.UsageResult, error)
}

type SubscriptionChecker interface {
	CheckClinic(ctx context.Context, clinicID uuid.UUID) (*service.SubscriptionCheck, error)
}

// messageSender часть *bot.Bot, которой пользуются обработчики
type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	scheduler     PackageScheduler
	usage         UsageTracker
	subscriptions SubscriptionChecker
	operators     map[int64]struct{}
	logger        *zap.Logger
}

// NewHandlers создаёт новый обработчик команд; operatorIDs - telegram ID операторов
func NewHandlers(
	scheduler PackageScheduler,
	usage UsageTracker,
	subscriptions SubscriptionChecker,
	operatorIDs []int64,
	logger *zap.Logger,
) *Handlers {
	operators := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		operators[id] = struct{}{}
	}

	return &Handlers{
		scheduler:     scheduler,
		usage:         usage,
		subscriptions: subscriptions,
		operators:     operators,
		logger:        logger,
	}
}

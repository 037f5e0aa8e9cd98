package repository

import (
	"github.com/Freeeeeet/therapy_scheduler/internal/repository/base"
	"github.com/Freeeeeet/therapy_scheduler/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Store собирает репозитории PostgreSQL в одно хранилище для сервисов
type Store struct {
	*PackageRepository
	*AssignmentRepository
	*ScheduleConfigRepository
	*TherapyDetailRepository
	*SessionRepository
	*SubscriptionRepository
}

func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	b := base.NewRepository(pool)
	return &Store{
		PackageRepository:        NewPackageRepository(b),
		AssignmentRepository:     NewAssignmentRepository(b),
		ScheduleConfigRepository: NewScheduleConfigRepository(b, logger),
		TherapyDetailRepository:  NewTherapyDetailRepository(b),
		SessionRepository:        NewSessionRepository(b),
		SubscriptionRepository:   NewSubscriptionRepository(b),
	}
}

var _ service.Store = (*Store)(nil)

package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/therapy_scheduler/internal/model"
	"github.com/google/uuid"
)

// Хранилища возвращают nil, nil, если запись не найдена.

type PackageStore interface {
	GetPatientPackage(ctx context.Context, id uuid.UUID) (*model.PatientPackage, error)
	// ListSchedulablePackageIDs возвращает пакеты, срок действия которых не истёк на момент at
	ListSchedulablePackageIDs(ctx context.Context, at time.Time) ([]uuid.UUID, error)
	// IncrementSessionsUsed атомарно увеличивает счётчик расхода и возвращает новое состояние
	IncrementSessionsUsed(ctx context.Context, id, therapyTypeID uuid.UUID) (map[string]int, error)
}

type AssignmentStore interface {
	ListActiveAssignments(ctx context.Context, patientID, patientPackageID uuid.UUID) ([]*model.TherapistAssignment, error)
	// FindActiveAssignment возвращает самое позднее активное назначение
	FindActiveAssignment(ctx context.Context, patientID, therapyTypeID, patientPackageID uuid.UUID) (*model.TherapistAssignment, error)
}

type ScheduleConfigStore interface {
	// FetchConfigsEnriched загружает правила вместе с названием терапии
	FetchConfigsEnriched(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error)
	// FetchConfigsRaw загружает правила без join
	FetchConfigsRaw(ctx context.Context, patientPackageID uuid.UUID) ([]*model.ScheduleConfig, error)
	GetTherapy(ctx context.Context, id uuid.UUID) (*model.Therapy, error)
}

type TherapyDetailStore interface {
	ListTherapyDetails(ctx context.Context, packageID uuid.UUID) ([]model.TherapyDetail, error)
}

type SessionStore interface {
	SessionExists(ctx context.Context, patientID, therapistID uuid.UUID, timestamp time.Time) (bool, error)
	// InsertSessions вставляет пачку одной операцией; точные дубликаты пропускаются.
	// Возвращает число реально вставленных строк.
	InsertSessions(ctx context.Context, sessions []*model.Session) (int, error)
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

type SubscriptionStore interface {
	GetLatestActiveSubscription(ctx context.Context, clinicID uuid.UUID) (*model.ClinicSubscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status model.SubscriptionStatus) error
}

// Store объединяет все хранилища одного бэкенда
type Store interface {
	PackageStore
	AssignmentStore
	ScheduleConfigStore
	TherapyDetailStore
	SessionStore
	SubscriptionStore
}

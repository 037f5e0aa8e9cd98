package sqlite

import (
	"time"

	"github.com/google/uuid"
)

// Строки таблиц. UUID хранятся текстом, время - в UTC.

type patientPackageRow struct {
	ID           uuid.UUID      `gorm:"type:text;primaryKey"`
	PackageID    uuid.UUID      `gorm:"type:text;not null"`
	PatientID    uuid.UUID      `gorm:"type:text;not null;index"`
	ClinicID     uuid.UUID      `gorm:"type:text;not null"`
	PackageName  string
	StartsAt     time.Time      `gorm:"not null"`
	ExpiresAt    *time.Time     `gorm:"index"`
	SessionsUsed map[string]int `gorm:"serializer:json"`
	CreatedAt    time.Time
}

func (patientPackageRow) TableName() string { return "patient_package" }

type assignmentRow struct {
	ID               uuid.UUID `gorm:"type:text;primaryKey"`
	PatientID        uuid.UUID `gorm:"type:text;not null;index:idx_assignment_lookup"`
	TherapistID      uuid.UUID `gorm:"type:text;not null"`
	TherapyTypeID    uuid.UUID `gorm:"type:text;not null;index:idx_assignment_lookup"`
	PatientPackageID uuid.UUID `gorm:"type:text;not null;index:idx_assignment_lookup"`
	IsActive         bool      `gorm:"not null"`
	CreatedAt        time.Time
}

func (assignmentRow) TableName() string { return "patient_therapist_assignment" }

type scheduleConfigRow struct {
	ID               uuid.UUID `gorm:"type:text;primaryKey"`
	PatientPackageID uuid.UUID `gorm:"type:text;not null;index"`
	TherapyTypeID    uuid.UUID `gorm:"type:text;not null"`
	DaysOfWeek       []int     `gorm:"serializer:json;not null"`
	TimeSlot         string    `gorm:"not null"` // HH:MM:SS
	CreatedAt        time.Time
}

func (scheduleConfigRow) TableName() string { return "package_schedule_config" }

type therapyRow struct {
	ID   uuid.UUID `gorm:"type:text;primaryKey"`
	Name string    `gorm:"not null"`
}

func (therapyRow) TableName() string { return "therapy" }

type therapyDetailRow struct {
	PackageID              uuid.UUID `gorm:"type:text;primaryKey"`
	TherapyTypeID          uuid.UUID `gorm:"type:text;primaryKey"`
	SessionCount           int
	SessionDurationMinutes int
}

func (therapyDetailRow) TableName() string { return "package_therapy_details" }

type sessionRow struct {
	ID               uuid.UUID  `gorm:"type:text;primaryKey"`
	PatientID        uuid.UUID  `gorm:"type:text;not null;uniqueIndex:idx_session_key"`
	TherapistID      uuid.UUID  `gorm:"type:text;not null;uniqueIndex:idx_session_key"`
	ClinicID         uuid.UUID  `gorm:"type:text"`
	PackageID        uuid.UUID  `gorm:"type:text"`
	TherapyTypeID    *uuid.UUID `gorm:"type:text"`
	PatientPackageID *uuid.UUID `gorm:"type:text;index"`
	Timestamp        time.Time  `gorm:"not null;uniqueIndex:idx_session_key"`
	Duration         int        `gorm:"not null"`
	Status           string     `gorm:"not null"`
	IsConsultation   bool
	Mode             int `gorm:"not null"`
	CreatedAt        time.Time
}

func (sessionRow) TableName() string { return "session" }

type subscriptionRow struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	ClinicID  uuid.UUID `gorm:"type:text;not null;index"`
	Tier      string    `gorm:"column:subscription_tier;not null"`
	Status    string    `gorm:"not null"`
	StartsAt  time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (subscriptionRow) TableName() string { return "clinic_subscription" }

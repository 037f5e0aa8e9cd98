package model

import (
	"time"

	"github.com/google/uuid"
)

// TherapistAssignment закрепляет терапевта за пациентом по типу терапии в рамках пакета
type TherapistAssignment struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	TherapistID      uuid.UUID `json:"therapist_id"`
	TherapyTypeID    uuid.UUID `json:"therapy_type_id"`
	PatientPackageID uuid.UUID `json:"patient_package_id"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

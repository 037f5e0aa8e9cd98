package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientPackage купленный пациентом пакет терапий
type PatientPackage struct {
	ID           uuid.UUID      `json:"id"`
	PackageID    uuid.UUID      `json:"package_id"` // пакет из каталога клиники
	PatientID    uuid.UUID      `json:"patient_id"`
	ClinicID     uuid.UUID      `json:"clinic_id"` // из записи пациента
	PackageName  string         `json:"package_name"`
	StartsAt     time.Time      `json:"starts_at"`
	ExpiresAt    *time.Time     `json:"expires_at"` // nil - срок не задан
	SessionsUsed map[string]int `json:"sessions_used"`
	CreatedAt    time.Time      `json:"created_at"`
}

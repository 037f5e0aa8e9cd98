package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // Создано генератором, ждёт подтверждения
	SessionStatusAccepted  SessionStatus = "accepted"  // Подтверждено
	SessionStatusCompleted SessionStatus = "completed" // Проведено
	SessionStatusCanceled  SessionStatus = "canceled"  // Отменено
)

// Counted сообщает, учитывается ли занятие в расходе пакета
func (s SessionStatus) Counted() bool {
	return s == SessionStatusAccepted || s == SessionStatusCompleted
}

type SessionMode int

const (
	SessionModeInPerson SessionMode = 1
	SessionModeOnline   SessionMode = 2
)

type Session struct {
	ID               uuid.UUID     `json:"id"`
	PatientID        uuid.UUID     `json:"patient_id"`
	TherapistID      uuid.UUID     `json:"therapist_id"`
	ClinicID         uuid.UUID     `json:"clinic_id"`
	PackageID        uuid.UUID     `json:"package_id"` // пакет из каталога
	TherapyTypeID    *uuid.UUID    `json:"therapy_type_id"`
	PatientPackageID *uuid.UUID    `json:"patient_package_id"` // купленный пакет, для учёта расхода
	Timestamp        time.Time     `json:"timestamp"`
	Duration         int           `json:"duration"` // в минутах
	Status           SessionStatus `json:"status"`
	IsConsultation   bool          `json:"is_consultation"`
	Mode             SessionMode   `json:"mode"`
	CreatedAt        time.Time     `json:"created_at"`
}

// SessionKey ключ уникальности занятия
type SessionKey struct {
	PatientID   uuid.UUID
	TherapistID uuid.UUID
	Timestamp   time.Time
}

// Key возвращает ключ уникальности; время нормализуется в UTC
func (s *Session) Key() SessionKey {
	return SessionKey{
		PatientID:   s.PatientID,
		TherapistID: s.TherapistID,
		Timestamp:   s.Timestamp.UTC(),
	}
}

package model

import "github.com/google/uuid"

// DefaultSessionDurationMinutes длительность занятия, если каталог её не задаёт
const DefaultSessionDurationMinutes = 60

type Therapy struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TherapyDetail параметры терапии внутри пакета из каталога
type TherapyDetail struct {
	PackageID              uuid.UUID `json:"package_id"`
	TherapyTypeID          uuid.UUID `json:"therapy_type_id"`
	SessionCount           int       `json:"session_count"`
	SessionDurationMinutes int       `json:"session_duration_minutes"` // 0 - не задано
}

// DurationCatalog длительность занятий по типу терапии
type DurationCatalog map[uuid.UUID]int

// NewDurationCatalog строит каталог длительностей; нулевые значения заменяются на значение по умолчанию
func NewDurationCatalog(details []TherapyDetail) DurationCatalog {
	catalog := make(DurationCatalog, len(details))
	for _, d := range details {
		duration := d.SessionDurationMinutes
		if duration <= 0 {
			duration = DefaultSessionDurationMinutes
		}
		catalog[d.TherapyTypeID] = duration
	}
	return catalog
}

// Duration возвращает длительность в минутах для типа терапии
func (c DurationCatalog) Duration(therapyTypeID uuid.UUID) int {
	if d, ok := c[therapyTypeID]; ok && d > 0 {
		return d
	}
	return DefaultSessionDurationMinutes
}

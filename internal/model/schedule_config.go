package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScheduleConfig представляет правило повторения занятий для пакета
// (одна строка на пару пакет + тип терапии)
type ScheduleConfig struct {
	ID               uuid.UUID `json:"id"`
	PatientPackageID uuid.UUID `json:"patient_package_id"`
	TherapyTypeID    uuid.UUID `json:"therapy_type_id"`
	DaysOfWeek       []int     `json:"days_of_week"` // 0 = Sunday, 6 = Saturday
	StartHour        int       `json:"start_hour"`   // 0-23
	StartMinute      int       `json:"start_minute"` // 0-59

	// Заполняется только обогащённым запросом или отдельным поиском
	Therapy *Therapy `json:"therapy,omitempty"`
}

// Weekdays возвращает дни недели правила как time.Weekday
func (c *ScheduleConfig) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(c.DaysOfWeek))
	for _, d := range c.DaysOfWeek {
		days = append(days, time.Weekday(d))
	}
	return days
}

// TimeSlot форматирует время начала как "HH:MM:SS"
func (c *ScheduleConfig) TimeSlot() string {
	return fmt.Sprintf("%02d:%02d:00", c.StartHour, c.StartMinute)
}

// ParseTimeSlot разбирает время в формате "HH:MM" или "HH:MM:SS"
func ParseTimeSlot(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, fmt.Errorf("invalid time slot %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in time slot %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in time slot %q", s)
	}

	return hour, minute, nil
}

// Package recurrence раскрывает недельные правила в конкретные даты занятий.
package recurrence

import (
	"errors"
	"time"
)

// Rule недельное правило: набор дней недели и одно время начала
type Rule struct {
	Weekdays []time.Weekday
	Hour     int
	Minute   int
}

var (
	ErrNoWeekdays     = errors.New("recurrence: rule has no weekdays")
	ErrInvalidWeekday = errors.New("recurrence: weekday out of range")
	ErrInvalidTime    = errors.New("recurrence: invalid time of day")
)

// Validate проверяет правило
func (r Rule) Validate() error {
	if len(r.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	for _, d := range r.Weekdays {
		if d < time.Sunday || d > time.Saturday {
			return ErrInvalidWeekday
		}
	}
	if r.Hour < 0 || r.Hour > 23 || r.Minute < 0 || r.Minute > 59 {
		return ErrInvalidTime
	}
	return nil
}

// Engine раскрывает правила в гражданском времени заданной локации
type Engine struct {
	location *time.Location
}

// NewEngine создаёт движок; nil означает UTC
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Expand возвращает моменты начала занятий для каждого календарного дня
// от даты start до даты end включительно, день недели которого входит в правило.
//
// Даты start и end берутся в локации движка, время суток у них игнорируется.
// Если end раньше start, результат пустой.
func (e *Engine) Expand(rule Rule, start, end time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	var days [7]bool
	for _, d := range rule.Weekdays {
		days[d] = true
	}

	first := civilDate(start.In(e.location))
	last := civilDate(end.In(e.location))
	if last.Before(first) {
		return nil, nil
	}

	instants := make([]time.Time, 0)
	// Арифметика по датам в UTC: переходы на летнее время не сдвигают дни
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		if !days[day.Weekday()] {
			continue
		}
		instants = append(instants, time.Date(day.Year(), day.Month(), day.Day(),
			rule.Hour, rule.Minute, 0, 0, e.location))
	}

	return instants, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

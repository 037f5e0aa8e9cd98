package recurrence

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestEngine_Expand(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	tests := []struct {
		name  string
		rule  Rule
		start time.Time
		end   time.Time
		want  []time.Time
	}{
		{
			name:  "monday and wednesday over two weeks",
			rule:  Rule{Weekdays: []time.Weekday{time.Monday, time.Wednesday}, Hour: 9},
			start: date(2024, time.January, 1, 0, 0),
			end:   date(2024, time.January, 14, 0, 0),
			want: []time.Time{
				date(2024, time.January, 1, 9, 0),
				date(2024, time.January, 3, 9, 0),
				date(2024, time.January, 8, 9, 0),
				date(2024, time.January, 10, 9, 0),
			},
		},
		{
			name:  "start and end on the same matching day",
			rule:  Rule{Weekdays: []time.Weekday{time.Monday}, Hour: 17, Minute: 30},
			start: date(2024, time.January, 1, 12, 0),
			end:   date(2024, time.January, 1, 12, 0),
			want:  []time.Time{date(2024, time.January, 1, 17, 30)},
		},
		{
			name:  "end time of day earlier than slot still includes last day",
			rule:  Rule{Weekdays: []time.Weekday{time.Sunday}, Hour: 10},
			start: date(2024, time.January, 1, 0, 0),
			end:   date(2024, time.January, 14, 8, 0),
			want: []time.Time{
				date(2024, time.January, 7, 10, 0),
				date(2024, time.January, 14, 10, 0),
			},
		},
		{
			name:  "same day not matching",
			rule:  Rule{Weekdays: []time.Weekday{time.Tuesday}, Hour: 9},
			start: date(2024, time.January, 1, 0, 0),
			end:   date(2024, time.January, 1, 0, 0),
			want:  nil,
		},
		{
			name:  "end before start",
			rule:  Rule{Weekdays: []time.Weekday{time.Monday}, Hour: 9},
			start: date(2024, time.January, 14, 0, 0),
			end:   date(2024, time.January, 1, 0, 0),
			want:  nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := engine.Expand(tc.rule, tc.start, tc.end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d instants, got %d: %v", len(tc.want), len(got), got)
			}
			for i := range got {
				if !got[i].Equal(tc.want[i]) {
					t.Errorf("instant %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestEngine_ExpandUsesCivilTimeOfLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*60*60)
	engine := NewEngine(loc)

	// 2024-01-01 22:00 UTC это уже 2024-01-02 (вторник) в UTC+5
	start := time.Date(2024, time.January, 1, 22, 0, 0, 0, time.UTC)
	got, err := engine.Expand(Rule{Weekdays: []time.Weekday{time.Tuesday}, Hour: 9}, start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 instant, got %d", len(got))
	}
	want := time.Date(2024, time.January, 2, 9, 0, 0, 0, loc)
	if !got[0].Equal(want) {
		t.Fatalf("expected %s, got %s", want, got[0])
	}
}

func TestEngine_ExpandAcrossDSTKeepsWallClock(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	engine := NewEngine(loc)

	start := time.Date(2024, time.March, 25, 0, 0, 0, 0, loc)
	end := time.Date(2024, time.April, 5, 0, 0, 0, 0, loc)
	got, err := engine.Expand(Rule{Weekdays: []time.Weekday{time.Friday}, Hour: 9}, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 instants, got %d", len(got))
	}
	for _, instant := range got {
		if instant.Hour() != 9 || instant.Minute() != 0 {
			t.Errorf("expected 09:00 wall clock, got %s", instant)
		}
	}
}

func TestEngine_ExpandRejectsInvalidRules(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	start := date(2024, time.January, 1, 0, 0)

	tests := []struct {
		name string
		rule Rule
		want error
	}{
		{"no weekdays", Rule{Hour: 9}, ErrNoWeekdays},
		{"weekday out of range", Rule{Weekdays: []time.Weekday{7}, Hour: 9}, ErrInvalidWeekday},
		{"hour out of range", Rule{Weekdays: []time.Weekday{time.Monday}, Hour: 24}, ErrInvalidTime},
		{"minute out of range", Rule{Weekdays: []time.Weekday{time.Monday}, Minute: 60}, ErrInvalidTime},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Expand(tc.rule, start, start)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

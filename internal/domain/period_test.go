package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCalendarRollsOverAtNoon(t *testing.T) {
	cal := NewCalendar(time.UTC)

	cases := []struct {
		now  time.Time
		want Period
	}{
		{time.Date(2024, 1, 11, 11, 59, 59, 0, time.UTC), NewPeriod(2024, 1, 10)},
		{time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC), NewPeriod(2024, 1, 11)},
		{time.Date(2024, 1, 11, 23, 30, 0, 0, time.UTC), NewPeriod(2024, 1, 11)},
		{time.Date(2024, 1, 12, 0, 30, 0, 0, time.UTC), NewPeriod(2024, 1, 11)},
		{time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC), NewPeriod(2024, 2, 29)},
	}
	for _, tc := range cases {
		if got := cal.PeriodOf(tc.now); !got.Equal(tc.want) {
			t.Fatalf("PeriodOf(%s) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestCalendarUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	cal := NewCalendar(loc)

	// 10:30 UTC is 12:30 local, already past the local noon boundary.
	now := time.Date(2024, 5, 4, 10, 30, 0, 0, time.UTC)
	if got := cal.PeriodOf(now); !got.Equal(NewPeriod(2024, 5, 4)) {
		t.Fatalf("expected local period 2024-05-04, got %s", got)
	}
}

func TestNextRollover(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Date(2024, 1, 11, 8, 0, 0, 0, time.UTC)
	want := time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	if got := cal.NextRollover(now); !got.Equal(want) {
		t.Fatalf("NextRollover = %s, want %s", got, want)
	}

	now = time.Date(2024, 1, 11, 12, 0, 0, 0, time.UTC)
	want = time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC)
	if got := cal.NextRollover(now); !got.Equal(want) {
		t.Fatalf("NextRollover at boundary = %s, want %s", got, want)
	}
}

func TestPeriodTextRoundTrip(t *testing.T) {
	p := NewPeriod(2024, 12, 31)
	raw, err := json.Marshal(struct {
		P Period `json:"p"`
	}{p})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"p":"2024-12-31"}` {
		t.Fatalf("unexpected json %s", raw)
	}
	if p.Next().String() != "2025-01-01" {
		t.Fatalf("expected year rollover, got %s", p.Next())
	}

	var zero Period
	if zero.Next().IsZero() != true {
		t.Fatalf("zero period must stay zero")
	}
	if _, err := ParsePeriod("2024-13-01"); err == nil {
		t.Fatalf("expected parse error")
	}
}

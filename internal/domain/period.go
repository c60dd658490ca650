package domain

import (
	"fmt"
	"time"
)

// DefaultRolloverOffset shifts the period boundary from midnight to noon.
const DefaultRolloverOffset = 12 * time.Hour

const periodLayout = "2006-01-02"

// Period is the civil date of one question rotation window.
// The zero value means "no period" (for example a user who never answered).
type Period struct {
	date time.Time // always 00:00 UTC
}

func NewPeriod(year int, month time.Month, day int) Period {
	return Period{date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// PeriodFromDate keeps the calendar date of t and drops the clock.
func PeriodFromDate(t time.Time) Period {
	if t.IsZero() {
		return Period{}
	}
	y, m, d := t.Date()
	return NewPeriod(y, m, d)
}

func ParsePeriod(raw string) (Period, error) {
	t, err := time.Parse(periodLayout, raw)
	if err != nil {
		return Period{}, fmt.Errorf("parse period %q: %w", raw, err)
	}
	return PeriodFromDate(t), nil
}

func (p Period) IsZero() bool { return p.date.IsZero() }

// Date returns the period as midnight UTC, suitable for DATE columns.
func (p Period) Date() time.Time { return p.date }

func (p Period) AddDays(n int) Period {
	if p.IsZero() {
		return p
	}
	return Period{date: p.date.AddDate(0, 0, n)}
}

func (p Period) Prev() Period { return p.AddDays(-1) }
func (p Period) Next() Period { return p.AddDays(1) }

func (p Period) Equal(o Period) bool  { return p.date.Equal(o.date) }
func (p Period) Before(o Period) bool { return p.date.Before(o.date) }
func (p Period) After(o Period) bool  { return p.date.After(o.date) }

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return p.date.Format(periodLayout)
}

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Calendar maps instants to periods.
type Calendar struct {
	Location *time.Location
	Offset   time.Duration
}

// NewCalendar returns a noon-rollover calendar in loc (UTC when nil).
func NewCalendar(loc *time.Location) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{Location: loc, Offset: DefaultRolloverOffset}
}

func (c Calendar) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// PeriodOf returns the period containing now: the local date of now shifted back by Offset.
func (c Calendar) PeriodOf(now time.Time) Period {
	return PeriodFromDate(now.In(c.location()).Add(-c.Offset))
}

// Start returns the instant period p begins.
func (c Calendar) Start(p Period) time.Time {
	y, m, d := p.date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.location()).Add(c.Offset)
}

// NextRollover returns the instant the period after the one containing now begins.
func (c Calendar) NextRollover(now time.Time) time.Time {
	return c.Start(c.PeriodOf(now).Next())
}

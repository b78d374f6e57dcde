// Package deadline decides whether a reservation for a calendar day may
// still be created or cancelled. The cutoff for day D is the last second of
// D-1 in the service's local time zone.
package deadline

import (
	"fmt"
	"time"

	"coachslot/internal/apperr"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Policy struct {
	loc *time.Location
	now func() time.Time
}

// NewPolicy builds a policy for loc. A nil now uses time.Now.
func NewPolicy(loc *time.Location, now func() time.Time) *Policy {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Policy{loc: loc, now: now}
}

func (p *Policy) Location() *time.Location {
	return p.loc
}

// Now reads the policy clock.
func (p *Policy) Now() time.Time {
	return p.now()
}

// Deadline returns 23:59:59 of the day before day, in the policy location.
func (p *Policy) Deadline(day time.Time) time.Time {
	y, m, d := day.In(p.loc).Date()
	return time.Date(y, m, d-1, 23, 59, 59, 0, p.loc)
}

func (p *Policy) IsWithinDeadline(day time.Time) bool {
	return !p.now().After(p.Deadline(day))
}

// Check returns ErrDeadlineExceeded once the cutoff for day has passed.
func (p *Policy) Check(day time.Time) error {
	if p.IsWithinDeadline(day) {
		return nil
	}
	return fmt.Errorf("actions for %s closed at %s: %w",
		day.In(p.loc).Format(DateLayout),
		p.Deadline(day).Format(time.RFC3339),
		apperr.ErrDeadlineExceeded,
	)
}

// ParseDay parses a YYYY-MM-DD calendar day as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, apperr.Validation("date must be YYYY-MM-DD, got %q", s)
	}
	return day, nil
}

// Combine joins a calendar day and an HH:MM time of day in loc.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	day, err := ParseDay(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, apperr.Validation("startTime must be HH:MM, got %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, loc), nil
}

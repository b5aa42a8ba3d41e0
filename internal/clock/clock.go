// Package clock decides what "today" means. Every "did this happen today"
// check in the app compares YYYY-MM-DD strings produced here.
package clock

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Clock is the time source. Services take one so tests can pin the day.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock frozen at T. Tests move it forward by assigning T.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Policy names accepted in configuration.
const (
	PolicyLocalMidnight = "local"
	PolicyFixedHour     = "fixed_hour"
	PolicyUTCMidnight   = "utc"
)

// DayBoundary turns an instant into the calendar day it belongs to.
type DayBoundary struct {
	policy string
	loc    *time.Location
	hour   int
}

// LocalMidnight starts each day at 00:00 in loc.
func LocalMidnight(loc *time.Location) DayBoundary {
	return DayBoundary{policy: PolicyLocalMidnight, loc: orLocal(loc)}
}

// FixedHour starts each day at hour:00 in loc; before that hour the
// previous calendar date is still "today".
func FixedHour(loc *time.Location, hour int) DayBoundary {
	return DayBoundary{policy: PolicyFixedHour, loc: orLocal(loc), hour: hour}
}

// UTCMidnight starts each day at 00:00 UTC regardless of the user's zone.
func UTCMidnight() DayBoundary {
	return DayBoundary{policy: PolicyUTCMidnight, loc: time.UTC}
}

// NewDayBoundary builds a boundary from configuration values.
func NewDayBoundary(policy, timezone string, hour int) (DayBoundary, error) {
	loc := time.Local
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return DayBoundary{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
		}
		loc = l
	}

	switch policy {
	case PolicyLocalMidnight:
		return LocalMidnight(loc), nil
	case PolicyFixedHour, "":
		if hour < 0 || hour > 23 {
			return DayBoundary{}, fmt.Errorf("reset hour must be between 0 and 23, got %d", hour)
		}
		return FixedHour(loc, hour), nil
	case PolicyUTCMidnight:
		return UTCMidnight(), nil
	default:
		return DayBoundary{}, fmt.Errorf("unknown day policy %q", policy)
	}
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// Policy returns the configured policy name.
func (b DayBoundary) Policy() string { return b.policy }

// Day returns the date string of the day t falls in.
func (b DayBoundary) Day(t time.Time) string {
	return b.dayStart(t).Format(DateLayout)
}

// PreviousDay returns the date string of the day before t's day.
func (b DayBoundary) PreviousDay(t time.Time) string {
	return b.dayStart(t).AddDate(0, 0, -1).Format(DateLayout)
}

func (b DayBoundary) dayStart(t time.Time) time.Time {
	t = t.In(orLocal(b.loc))
	if b.policy == PolicyFixedHour && t.Hour() < b.hour {
		t = t.AddDate(0, 0, -1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Package temporal derives calendar context from a moment and a timezone.
// Everything downstream (statistics, scheduling, quiet hours) goes
// through this package for day alignment so that all stages agree on
// what "today" means in the user's timezone.
package temporal

import "time"

// TimeOfDay is a coarse bucket of the local day.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"   // 05:00–11:59
	Afternoon TimeOfDay = "afternoon" // 12:00–16:59
	Evening   TimeOfDay = "evening"   // 17:00–21:59
	Night     TimeOfDay = "night"
)

// Season of the year, northern-hemisphere months.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// Quiet-hour bounds, local time. Delivery is forbidden in [Start, 24)
// and [0, End).
const (
	QuietHoursStart = 22
	QuietHoursEnd   = 7
)

// Context is an immutable snapshot of the local calendar situation,
// assembled once per planning call and threaded through all stages.
type Context struct {
	Now       time.Time
	Location  *time.Location
	Timezone  string
	TimeOfDay TimeOfDay
	DayOfWeek time.Weekday
	Hour      int
	Minute    int
	IsWeekend bool
	Season    Season
}

// NewContext builds a Context for the given moment. A nil or unknown
// location falls back to UTC.
func NewContext(now time.Time, timezone string) Context {
	loc, err := time.LoadLocation(timezone)
	if err != nil || loc == nil {
		loc = time.UTC
		timezone = "UTC"
	}
	local := now.In(loc)
	hour := local.Hour()
	wd := local.Weekday()

	return Context{
		Now:       local,
		Location:  loc,
		Timezone:  timezone,
		TimeOfDay: bucketOf(hour),
		DayOfWeek: wd,
		Hour:      hour,
		Minute:    local.Minute(),
		IsWeekend: wd == time.Saturday || wd == time.Sunday,
		Season:    seasonOf(local.Month()),
	}
}

func bucketOf(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 22:
		return Evening
	default:
		return Night
	}
}

func seasonOf(m time.Month) Season {
	switch {
	case m >= time.March && m <= time.May:
		return Spring
	case m >= time.June && m <= time.August:
		return Summer
	case m >= time.September && m <= time.November:
		return Autumn
	default:
		return Winter
	}
}

// IsQuietHour reports whether notifications may not be delivered at the
// given local hour. The window straddles midnight: 22:00–06:59.
func IsQuietHour(hour int) bool {
	return hour >= QuietHoursStart || hour < QuietHoursEnd
}

// IsQuietTime is IsQuietHour applied to a concrete moment.
func IsQuietTime(t time.Time) bool {
	return IsQuietHour(t.Hour())
}

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayStartMs is DayStart for an epoch-ms timestamp interpreted in loc.
func DayStartMs(ms int64, loc *time.Location) int64 {
	return DayStart(time.UnixMilli(ms).In(loc)).UnixMilli()
}

// AtHour returns the same calendar day as t with the clock set to
// hour:minute.
func AtHour(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

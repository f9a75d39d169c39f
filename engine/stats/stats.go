// Package stats computes canonical habit statistics from event history.
// Every pipeline stage that needs streaks, rates or timing signals goes
// through this package; no consumer re-derives them independently.
// All functions are pure over their inputs; "now" must already be in the
// user's local timezone.
package stats

import (
	"time"

	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

const dayMs = 24 * 60 * 60 * 1000

// Trend describes the 7-day-over-7-day completion direction.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// Momentum describes completion density over the last 3 calendar days.
type Momentum string

const (
	MomentumStrong   Momentum = "strong"
	MomentumModerate Momentum = "moderate"
	MomentumWeak     Momentum = "weak"
	MomentumNegative Momentum = "negative"
)

// consecutiveMissCap bounds the backward walk when counting misses.
const consecutiveMissCap = 10

// Milestones are the streak lengths worth announcing.
var Milestones = []int{7, 14, 30, 100}

// Summary aggregates the canonical statistics for one habit.
type Summary struct {
	Streak            int
	MaxStreak         int
	CompletionRate    float64
	ConsecutiveMisses int

	// BestHour, WorstHour and AvgHour are -1 when there is no signal.
	BestHour  int
	WorstHour int
	AvgHour   int

	Trend    Trend
	Momentum Momentum

	WeekendRate     float64
	SnoozeFrequency float64

	CompletedToday   bool
	LastSnoozeReason habit.SnoozeReason

	// DaysSinceLastCompletion is -1 when the habit was never completed.
	DaysSinceLastCompletion int
}

// Summarize computes a Summary for the habit at the given local moment.
// When the caller supplied no completion history, the habit's own
// client-derived streak/rate/miss hints are adopted so that the smart
// rules still have a signal to work with.
func Summarize(h *habit.Habit, now time.Time) Summary {
	s := Summary{
		Streak:                  Streak(h.Completions, now),
		MaxStreak:               MaxStreak(h.Completions, now.Location()),
		CompletionRate:          CompletionRate(h.Completions, h.CreatedAt, now),
		ConsecutiveMisses:       ConsecutiveMisses(h.Completions, now),
		BestHour:                BestHour(h.Completions, now.Location()),
		WorstHour:               WorstHour(h.Completions, now.Location()),
		AvgHour:                 AvgHour(h.Completions, now.Location()),
		Trend:                   TrendOf(h.Completions, now),
		Momentum:                MomentumOf(h.Completions, now),
		WeekendRate:             WeekendRate(h.Completions, now.Location()),
		SnoozeFrequency:         SnoozeFrequency(h.SnoozeEvents, h.Completions),
		CompletedToday:          CompletedToday(h.Completions, now),
		DaysSinceLastCompletion: DaysSinceLastCompletion(h.Completions, now),
	}
	if n := len(h.SnoozeEvents); n > 0 {
		s.LastSnoozeReason = h.SnoozeEvents[n-1].Reason
	}
	if len(h.Completions) == 0 {
		if h.Streak > 0 {
			s.Streak = h.Streak
		}
		if h.CompletionRate > 0 {
			s.CompletionRate = h.CompletionRate
		}
		if h.ConsecutiveMisses > 0 {
			s.ConsecutiveMisses = h.ConsecutiveMisses
		}
	}
	return s
}

// completionDays collapses completions to the set of local day starts.
func completionDays(completions []habit.Completion, loc *time.Location) map[int64]struct{} {
	days := make(map[int64]struct{}, len(completions))
	for _, c := range completions {
		days[temporal.DayStartMs(c.Timestamp, loc)] = struct{}{}
	}
	return days
}

// Streak is the length of the maximal run of calendar days with at
// least one completion, ending today or yesterday. A run that ended
// yesterday is still alive: today's completion simply hasn't happened
// yet, and completing today extends it by one.
func Streak(completions []habit.Completion, now time.Time) int {
	if len(completions) == 0 {
		return 0
	}
	days := completionDays(completions, now.Location())
	anchor := temporal.DayStart(now).UnixMilli()
	if _, ok := days[anchor]; !ok {
		anchor -= dayMs
	}

	streak := 0
	for {
		if _, ok := days[anchor-int64(streak)*dayMs]; !ok {
			break
		}
		streak++
	}
	return streak
}

// MaxStreak is the longest run of consecutive completion days anywhere
// in the history.
func MaxStreak(completions []habit.Completion, loc *time.Location) int {
	if len(completions) == 0 {
		return 0
	}
	days := completionDays(completions, loc)

	best := 0
	for day := range days {
		// Only start counting at the beginning of a run.
		if _, ok := days[day-dayMs]; ok {
			continue
		}
		run := 1
		for {
			if _, ok := days[day+int64(run)*dayMs]; !ok {
				break
			}
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}

// CompletionRate is unique completion days divided by days since the
// habit was created, with a minimum denominator of one day.
// Always in [0,1]; zero when there are no completions.
func CompletionRate(completions []habit.Completion, createdAtMs int64, now time.Time) float64 {
	if len(completions) == 0 {
		return 0
	}
	daysSince := (now.UnixMilli() - createdAtMs) / dayMs
	if daysSince < 1 {
		daysSince = 1
	}
	rate := float64(len(completionDays(completions, now.Location()))) / float64(daysSince)
	if rate > 1 {
		rate = 1
	}
	return rate
}

// ConsecutiveMisses walks backward from yesterday counting days without
// a completion, stopping at the first completed day. Capped at 10.
func ConsecutiveMisses(completions []habit.Completion, now time.Time) int {
	days := completionDays(completions, now.Location())
	yesterday := temporal.DayStart(now).UnixMilli() - dayMs

	misses := 0
	for misses < consecutiveMissCap {
		if _, ok := days[yesterday-int64(misses)*dayMs]; ok {
			break
		}
		misses++
	}
	return misses
}

// BestHour is the mode of the local completion hour, or -1 without data.
func BestHour(completions []habit.Completion, loc *time.Location) int {
	if len(completions) == 0 {
		return -1
	}
	var counts [24]int
	for _, c := range completions {
		counts[time.UnixMilli(c.Timestamp).In(loc).Hour()]++
	}
	best, max := -1, 0
	for h, n := range counts {
		if n > max {
			max, best = n, h
		}
	}
	return best
}

// WorstHour is the hour opposite the best hour on the clock face; no
// better signal exists in the history alone. -1 without data.
func WorstHour(completions []habit.Completion, loc *time.Location) int {
	best := BestHour(completions, loc)
	if best < 0 {
		return -1
	}
	return (best + 12) % 24
}

// AvgHour is the rounded mean local completion hour, or -1 without data.
func AvgHour(completions []habit.Completion, loc *time.Location) int {
	if len(completions) == 0 {
		return -1
	}
	sum := 0
	for _, c := range completions {
		sum += time.UnixMilli(c.Timestamp).In(loc).Hour()
	}
	return (sum + len(completions)/2) / len(completions)
}

// TrendOf compares completions in the last 7 days against the prior 7.
// Improving at >=1.2x, declining at <=0.8x. Histories shorter than 14
// completions read as stable.
func TrendOf(completions []habit.Completion, now time.Time) Trend {
	if len(completions) < 14 {
		return TrendStable
	}
	today := temporal.DayStart(now).UnixMilli()
	loc := now.Location()

	var last7, prior7 int
	for _, c := range completions {
		day := temporal.DayStartMs(c.Timestamp, loc)
		diff := (today - day) / dayMs
		switch {
		case diff >= 0 && diff < 7:
			last7++
		case diff >= 7 && diff < 14:
			prior7++
		}
	}
	switch {
	case float64(last7) > float64(prior7)*1.2:
		return TrendImproving
	case float64(last7) < float64(prior7)*0.8:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// MomentumOf counts completion days among the last 3 calendar days.
func MomentumOf(completions []habit.Completion, now time.Time) Momentum {
	if len(completions) < 3 {
		return MomentumWeak
	}
	days := completionDays(completions, now.Location())
	today := temporal.DayStart(now).UnixMilli()

	n := 0
	for i := int64(0); i < 3; i++ {
		if _, ok := days[today-i*dayMs]; ok {
			n++
		}
	}
	switch n {
	case 3:
		return MomentumStrong
	case 2:
		return MomentumModerate
	case 1:
		return MomentumWeak
	default:
		return MomentumNegative
	}
}

// WeekendRate is the share of completions that landed on a weekend.
func WeekendRate(completions []habit.Completion, loc *time.Location) float64 {
	if len(completions) == 0 {
		return 0
	}
	weekend := 0
	for _, c := range completions {
		wd := time.UnixMilli(c.Timestamp).In(loc).Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			weekend++
		}
	}
	return float64(weekend) / float64(len(completions))
}

// SnoozeFrequency is snoozes over snoozes-plus-completions. Defined as 1
// when there are snoozes but no completions at all.
func SnoozeFrequency(snoozes []habit.SnoozeEvent, completions []habit.Completion) float64 {
	if len(snoozes) == 0 {
		return 0
	}
	if len(completions) == 0 {
		return 1
	}
	return float64(len(snoozes)) / float64(len(snoozes)+len(completions))
}

// CompletedToday reports a completion on the current calendar day.
func CompletedToday(completions []habit.Completion, now time.Time) bool {
	today := temporal.DayStart(now).UnixMilli()
	loc := now.Location()
	for _, c := range completions {
		if temporal.DayStartMs(c.Timestamp, loc) == today {
			return true
		}
	}
	return false
}

// DaysSinceLastCompletion counts whole days since the most recent
// completion, or -1 when there is none.
func DaysSinceLastCompletion(completions []habit.Completion, now time.Time) int {
	if len(completions) == 0 {
		return -1
	}
	var latest int64
	for _, c := range completions {
		if c.Timestamp > latest {
			latest = c.Timestamp
		}
	}
	return int((now.UnixMilli() - latest) / dayMs)
}

// NextMilestone returns the first milestone above the streak and how
// many days remain to reach it. ok is false past every milestone.
func NextMilestone(streak int) (milestone, daysLeft int, ok bool) {
	for _, m := range Milestones {
		if m > streak {
			return m, m - streak, true
		}
	}
	return 0, 0, false
}

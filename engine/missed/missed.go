// Package missed backfills missed-day records for habits. A day is
// missed when it has neither a completion nor a snooze; today is never
// evaluated because it is not over yet.
package missed

import (
	"time"

	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

const dayMs = 24 * 60 * 60 * 1000

// LookbackDays bounds the backfill window even for old habits.
const LookbackDays = 30

// Track returns the missed-day records that do not exist yet for the
// habit, covering each calendar day from yesterday back to the habit's
// creation day, bounded to LookbackDays. Idempotent: feeding its own
// output back in via the habit's MissedEvents yields an empty delta.
func Track(h *habit.Habit, now time.Time) []habit.MissedEvent {
	loc := now.Location()
	yesterday := temporal.DayStart(now).UnixMilli() - dayMs
	createdDay := temporal.DayStartMs(h.CreatedAt, loc)

	floor := temporal.DayStart(now).UnixMilli() - LookbackDays*dayMs
	if createdDay > floor {
		floor = createdDay
	}
	if yesterday < floor {
		return nil
	}

	completed := daySet(len(h.Completions), func(i int) int64 { return h.Completions[i].Timestamp }, loc)
	snoozed := daySet(len(h.SnoozeEvents), func(i int) int64 { return h.SnoozeEvents[i].Timestamp }, loc)
	tracked := daySet(len(h.MissedEvents), func(i int) int64 { return h.MissedEvents[i].Date }, loc)

	var delta []habit.MissedEvent
	for day := yesterday; day >= floor; day -= dayMs {
		if _, ok := completed[day]; ok {
			continue
		}
		if _, ok := snoozed[day]; ok {
			continue
		}
		if _, ok := tracked[day]; ok {
			continue
		}
		delta = append(delta, habit.MissedEvent{
			ID:        habit.MissedEventID(h.ID, day),
			HabitID:   h.ID,
			Date:      day,
			CreatedAt: now.UnixMilli(),
		})
	}
	return delta
}

func daySet(n int, ts func(i int) int64, loc *time.Location) map[int64]struct{} {
	days := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		days[temporal.DayStartMs(ts(i), loc)] = struct{}{}
	}
	return days
}

// Count returns the number of missed days, optionally restricted to the
// last windowDays. A windowDays of zero or less counts everything.
func Count(events []habit.MissedEvent, windowDays int, now time.Time) int {
	if len(events) == 0 {
		return 0
	}
	if windowDays <= 0 {
		return len(events)
	}
	cutoff := temporal.DayStart(now).UnixMilli() - int64(windowDays)*dayMs
	loc := now.Location()

	n := 0
	for _, e := range events {
		if temporal.DayStartMs(e.Date, loc) >= cutoff {
			n++
		}
	}
	return n
}

// Consecutive counts the unbroken run of missed days ending yesterday.
// Records for today or the future are skipped, not run-breaking.
func Consecutive(events []habit.MissedEvent, now time.Time) int {
	if len(events) == 0 {
		return 0
	}
	loc := now.Location()
	days := daySet(len(events), func(i int) int64 { return events[i].Date }, loc)

	expected := temporal.DayStart(now).UnixMilli() - dayMs
	run := 0
	for {
		if _, ok := days[expected]; !ok {
			break
		}
		run++
		expected -= dayMs
	}
	return run
}

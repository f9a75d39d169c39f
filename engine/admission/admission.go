// Package admission decides which notification candidates actually
// ship. It runs in two passes: a per-habit pass enforcing quiet hours,
// per-habit caps and minimum spacing, then a global pass enforcing the
// cross-habit ceiling.
package admission

import (
	"sort"
	"time"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// Config carries the admission limits. Values are immutable for the
// lifetime of a planning call.
type Config struct {
	MaxPerHabit int
	MaxExtended int
	MinSpacing  time.Duration
	GlobalCap   int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxPerHabit: 4,
		MaxExtended: 15,
		MinSpacing:  3 * time.Hour,
		GlobalCap:   60,
	}
}

// NeedsExtendedSupport reports whether a habit qualifies for the raised
// per-habit cap: multi-slot frequency, a low completion rate, a run of
// misses, or a long streak with nothing done yet today.
func NeedsExtendedSupport(h *habit.Habit, sum stats.Summary) bool {
	if h.Frequency.Multi() {
		return true
	}
	if sum.CompletionRate < 0.5 {
		return true
	}
	if sum.ConsecutiveMisses >= 3 {
		return true
	}
	return sum.Streak > 7 && len(h.CompletedSlotsToday) == 0
}

// typePriority ranks notification types for per-habit truncation.
// Reminders always survive over everything else.
func typePriority(t habit.NotificationType) int {
	switch t {
	case habit.TypeBaseReminder, habit.TypeReminder:
		return 10
	case habit.TypeStreakWarning:
		return 9
	case habit.TypeMotivation:
		return 5
	case habit.TypePersonalized:
		return 4
	case habit.TypeCelebration:
		return 3
	default:
		return 1
	}
}

// FilterHabit runs the per-habit admission pass over one habit's
// candidates: quiet-hours and past-time drops, the type-priority cap,
// then the minimum-spacing sweep.
func FilterHabit(notifs []habit.Notification, h *habit.Habit, sum stats.Summary, tc temporal.Context, cfg Config) []habit.Notification {
	kept := make([]habit.Notification, 0, len(notifs))
	for _, n := range notifs {
		t := n.Time(tc.Location)
		if temporal.IsQuietHour(t.Hour()) {
			continue
		}
		if !t.After(tc.Now) {
			continue
		}
		kept = append(kept, n)
	}

	limit := cfg.MaxPerHabit
	if NeedsExtendedSupport(h, sum) {
		limit = cfg.MaxExtended
	}
	if len(kept) > limit {
		sort.SliceStable(kept, func(i, j int) bool {
			pi, pj := typePriority(kept[i].Type), typePriority(kept[j].Type)
			if pi != pj {
				return pi > pj
			}
			return kept[i].Timestamp < kept[j].Timestamp
		})
		kept = kept[:limit]
	}

	return enforceSpacing(kept, cfg.MinSpacing)
}

// enforceSpacing keeps notifications at least minSpacing apart, in time
// order. The earliest is always kept; each later one is kept only when
// far enough from the last kept one.
func enforceSpacing(notifs []habit.Notification, minSpacing time.Duration) []habit.Notification {
	if len(notifs) <= 1 {
		return notifs
	}
	sort.SliceStable(notifs, func(i, j int) bool {
		return notifs[i].Timestamp < notifs[j].Timestamp
	})

	gap := minSpacing.Milliseconds()
	out := notifs[:1]
	last := notifs[0].Timestamp
	for _, n := range notifs[1:] {
		if n.Timestamp-last >= gap {
			out = append(out, n)
			last = n.Timestamp
		}
	}
	return out
}

// globalTier ranks notification types for the cross-habit ceiling.
func globalTier(t habit.NotificationType) int {
	switch t {
	case habit.TypeBaseReminder, habit.TypeReminder, habit.TypeStreakWarning:
		return 3
	case habit.TypeMotivation:
		return 2
	default:
		return 1
	}
}

// FilterGlobal enforces the cross-habit ceiling over the per-habit
// survivors: rank by tier then time, truncate, return in time order.
func FilterGlobal(notifs []habit.Notification, cfg Config) []habit.Notification {
	if len(notifs) > cfg.GlobalCap {
		sort.SliceStable(notifs, func(i, j int) bool {
			ti, tj := globalTier(notifs[i].Type), globalTier(notifs[j].Type)
			if ti != tj {
				return ti > tj
			}
			return notifs[i].Timestamp < notifs[j].Timestamp
		})
		notifs = notifs[:cfg.GlobalCap]
	}

	sort.SliceStable(notifs, func(i, j int) bool {
		return notifs[i].Timestamp < notifs[j].Timestamp
	})
	return notifs
}

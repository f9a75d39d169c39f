// Package behavior combines canonical statistics into risk and
// opportunity flags and a completion-probability score.
package behavior

import (
	"time"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// habitFormingDays is the window during which a habit is still forming.
const habitFormingDays = 66

// Strategy is the notification approach the probability score suggests.
type Strategy string

const (
	StrategyGentleReminder  Strategy = "gentle_reminder"
	StrategyMotivationBoost Strategy = "motivation_boost"
	StrategyChallenge       Strategy = "challenge"
	StrategyEmpathySupport  Strategy = "empathy_support"
)

// Risks flags conditions that threaten the habit.
type Risks struct {
	StreakAtRisk        bool `json:"streakAtRisk"`
	MotivationDeclining bool `json:"motivationDeclining"`
	HabitForming        bool `json:"habitForming"`
}

// Window is an hour range around the user's best completion time.
type Window struct {
	StartHour float64 `json:"start"`
	EndHour   float64 `json:"end"`
}

// Opportunities flags conditions worth celebrating or pushing toward.
type Opportunities struct {
	CanBreakRecord    bool    `json:"canBreakRecord"`
	CanReachMilestone bool    `json:"canReachMilestone"`
	OptimalWindow     *Window `json:"optimalTimeWindow,omitempty"`
}

// Behavior is the analyzer's combined output for one habit.
type Behavior struct {
	Trend         stats.Trend    `json:"trend"`
	Momentum      stats.Momentum `json:"momentum"`
	Risks         Risks          `json:"risks"`
	Opportunities Opportunities  `json:"opportunities"`
	Probability   float64        `json:"probability"`
}

// Analyze builds the full behavioral picture for a habit at the given
// moment.
func Analyze(h *habit.Habit, tc temporal.Context, sum stats.Summary, user habit.UserProfile) Behavior {
	return Behavior{
		Trend:    sum.Trend,
		Momentum: sum.Momentum,
		Risks: Risks{
			StreakAtRisk:        StreakAtRisk(sum),
			MotivationDeclining: MotivationDeclining(h, tc.Now),
			HabitForming:        HabitForming(h.CreatedAt, tc.Now),
		},
		Opportunities: Opportunities{
			CanBreakRecord:    CanBreakRecord(sum),
			CanReachMilestone: CanReachMilestone(sum.Streak),
			OptimalWindow:     OptimalWindow(sum),
		},
		Probability: Probability(tc, sum, user),
	}
}

// Probability estimates the chance the habit gets completed, starting
// from 0.5 and applying additive adjustments, clamped to [0,1].
func Probability(tc temporal.Context, sum stats.Summary, user habit.UserProfile) float64 {
	p := 0.5

	if sum.BestHour >= 0 && tc.Hour == sum.BestHour {
		p += 0.20
	}
	if sum.Streak > 7 {
		p += 0.15
	}
	if tc.IsWeekend && sum.WeekendRate > 0.8 {
		p += 0.10
	}
	if sum.CompletionRate > 0.8 {
		p += 0.10
	}

	switch {
	case sum.ConsecutiveMisses > 2:
		p -= 0.30
	case sum.ConsecutiveMisses > 0:
		p -= 0.15
	}
	if sum.WorstHour >= 0 && tc.Hour == sum.WorstHour {
		p -= 0.20
	}
	if sum.LastSnoozeReason == habit.SnoozeTired && tc.TimeOfDay == temporal.Evening {
		p -= 0.15
	}
	if sum.LastSnoozeReason == habit.SnoozeNotHome && tc.TimeOfDay == temporal.Morning {
		p -= 0.10
	}

	switch user.CurrentState {
	case habit.UserStateStruggling:
		p -= 0.20
	case habit.UserStateMotivated:
		p += 0.15
	}

	return clamp01(p)
}

// OptimalStrategy maps a completion probability to an approach.
func OptimalStrategy(probability float64) Strategy {
	switch {
	case probability > 0.7:
		return StrategyGentleReminder
	case probability > 0.4:
		return StrategyMotivationBoost
	case probability > 0.2:
		return StrategyChallenge
	default:
		return StrategyEmpathySupport
	}
}

// StreakAtRisk fires for streaks above 5 days with no completion today.
func StreakAtRisk(sum stats.Summary) bool {
	return sum.Streak > 5 && !sum.CompletedToday
}

// MotivationDeclining fires when the last 3 days saw more snoozes than
// completions. An empty completion history reads as declining.
func MotivationDeclining(h *habit.Habit, now time.Time) bool {
	if len(h.Completions) == 0 {
		return true
	}
	cutoff := temporal.DayStart(now).UnixMilli() - 2*24*60*60*1000
	loc := now.Location()

	var completions, snoozes int
	for _, c := range h.Completions {
		if temporal.DayStartMs(c.Timestamp, loc) >= cutoff {
			completions++
		}
	}
	for _, s := range h.SnoozeEvents {
		if temporal.DayStartMs(s.Timestamp, loc) >= cutoff {
			snoozes++
		}
	}
	return snoozes > completions
}

// HabitForming reports whether the habit is within its first 66 days.
func HabitForming(createdAtMs int64, now time.Time) bool {
	return (now.UnixMilli()-createdAtMs)/(24*60*60*1000) < habitFormingDays
}

// CanBreakRecord fires when the current streak is exactly one day short
// of the historical maximum.
func CanBreakRecord(sum stats.Summary) bool {
	return sum.Streak > 0 && sum.Streak == sum.MaxStreak-1
}

// CanReachMilestone fires when the next milestone is reachable by
// tomorrow.
func CanReachMilestone(streak int) bool {
	_, daysLeft, ok := stats.NextMilestone(streak)
	return ok && daysLeft <= 1
}

// OptimalWindow is the half-hour band around the best completion hour,
// or nil without signal.
func OptimalWindow(sum stats.Summary) *Window {
	if sum.BestHour < 0 {
		return nil
	}
	return &Window{
		StartHour: float64(sum.BestHour) - 0.5,
		EndHour:   float64(sum.BestHour) + 0.5,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

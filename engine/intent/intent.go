// Package intent maps behavioral signals to a ranked user intent and an
// emotional-state label. Both are small fixed classifiers: intents are
// boolean detectors with priority tiers, emotional state is an ordered
// decision table where the first matching rule wins.
package intent

import (
	"math"
	"time"

	"github.com/hrygo/habitsense/engine/behavior"
	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// Type identifies a predicted user intent.
type Type string

const (
	WantsToComplete       Type = "wants_to_complete"
	WantsToPostpone       Type = "wants_to_postpone"
	WantsToGiveUp         Type = "wants_to_give_up"
	WantsToContinueStreak Type = "wants_to_continue_streak"
	WantsToReachMilestone Type = "wants_to_reach_milestone"
	Neutral               Type = "neutral"
)

// Priority tiers for intents. Higher tier always beats higher confidence.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

func (p Priority) rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Need names what the user requires from the next notification.
type Need string

const (
	NeedTimingReminder    Need = "timing_reminder"
	NeedGentlePush        Need = "gentle_push"
	NeedEmpathyAndSupport Need = "empathy_and_support"
	NeedStreakProtection  Need = "streak_protection"
	NeedMilestoneSupport  Need = "milestone_support"
	NeedStandardReminder  Need = "standard_reminder"
)

// Intent is the winning prediction for one planning call.
type Intent struct {
	Type       Type     `json:"type"`
	Confidence float64  `json:"confidence"`
	Need       Need     `json:"needs"`
	Priority   Priority `json:"priority"`
}

// Predict evaluates all detectors and returns the winner: highest
// priority tier first, ties broken by confidence, neutral default when
// nothing fires.
func Predict(h *habit.Habit, tc temporal.Context, b behavior.Behavior, sum stats.Summary, user habit.UserProfile) Intent {
	var candidates []Intent

	if detectComplete(tc, b, sum) {
		conf := b.Probability
		if b.Momentum == stats.MomentumStrong {
			conf += 0.2
		}
		candidates = append(candidates, Intent{
			Type:       WantsToComplete,
			Confidence: clamp01(conf),
			Need:       NeedTimingReminder,
			Priority:   PriorityHigh,
		})
	}

	if detectPostpone(h, tc, b, sum) {
		conf := 1 - b.Probability
		if b.Momentum == stats.MomentumNegative {
			conf += 0.2
		}
		candidates = append(candidates, Intent{
			Type:       WantsToPostpone,
			Confidence: clamp01(conf),
			Need:       NeedGentlePush,
			Priority:   PriorityMedium,
		})
	}

	if detectGiveUp(b, sum, user) {
		candidates = append(candidates, Intent{
			Type:       WantsToGiveUp,
			Confidence: math.Min(0.9, float64(sum.ConsecutiveMisses)/10),
			Need:       NeedEmpathyAndSupport,
			Priority:   PriorityCritical,
		})
	}

	if detectContinueStreak(b, sum) {
		conf := 0.7
		if b.Risks.StreakAtRisk {
			conf = 0.9
		}
		candidates = append(candidates, Intent{
			Type:       WantsToContinueStreak,
			Confidence: conf,
			Need:       NeedStreakProtection,
			Priority:   PriorityCritical,
		})
	}

	if detectReachMilestone(sum) {
		candidates = append(candidates, Intent{
			Type:       WantsToReachMilestone,
			Confidence: 0.8,
			Need:       NeedMilestoneSupport,
			Priority:   PriorityHigh,
		})
	}

	if len(candidates) == 0 {
		return Default()
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Priority.rank() > best.Priority.rank() ||
			(c.Priority.rank() == best.Priority.rank() && c.Confidence > best.Confidence) {
			best = c
		}
	}
	return best
}

// Default is the neutral intent returned when no detector fires.
func Default() Intent {
	return Intent{
		Type:       Neutral,
		Confidence: 0.5,
		Need:       NeedStandardReminder,
		Priority:   PriorityLow,
	}
}

func detectComplete(tc temporal.Context, b behavior.Behavior, sum stats.Summary) bool {
	if b.Probability > 0.6 {
		return true
	}
	if sum.BestHour >= 0 && abs(tc.Hour-sum.BestHour) <= 1 {
		return true
	}
	if b.Momentum == stats.MomentumStrong {
		return true
	}
	return b.Trend == stats.TrendImproving || b.Trend == stats.TrendStable
}

func detectPostpone(h *habit.Habit, tc temporal.Context, b behavior.Behavior, sum stats.Summary) bool {
	if b.Probability < 0.5 {
		return true
	}
	if RecentSnoozes(h.SnoozeEvents, tc.Now, 3) >= 2 {
		return true
	}
	return sum.WorstHour >= 0 && tc.Hour == sum.WorstHour
}

func detectGiveUp(b behavior.Behavior, sum stats.Summary, user habit.UserProfile) bool {
	if sum.ConsecutiveMisses > 5 {
		return true
	}
	if sum.CompletionRate < 0.3 && sum.SnoozeFrequency > 0.6 {
		return true
	}
	if b.Trend == stats.TrendDeclining && b.Momentum == stats.MomentumNegative {
		return true
	}
	return user.CurrentState == habit.UserStateStruggling
}

func detectContinueStreak(b behavior.Behavior, sum stats.Summary) bool {
	if b.Risks.StreakAtRisk && sum.Streak > 5 {
		return true
	}
	if sum.Streak > 7 {
		return true
	}
	_, daysLeft, ok := stats.NextMilestone(sum.Streak)
	return ok && daysLeft <= 2
}

func detectReachMilestone(sum stats.Summary) bool {
	_, daysLeft, ok := stats.NextMilestone(sum.Streak)
	return ok && daysLeft <= 1
}

// RecentSnoozes counts snooze events within the last windowDays.
func RecentSnoozes(snoozes []habit.SnoozeEvent, now time.Time, windowDays int) int {
	cutoff := now.UnixMilli() - int64(windowDays)*24*60*60*1000
	n := 0
	for _, s := range snoozes {
		if s.Timestamp >= cutoff {
			n++
		}
	}
	return n
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
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

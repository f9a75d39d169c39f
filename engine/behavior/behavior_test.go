package behavior

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ctxAtHour(hour int) temporal.Context {
	return temporal.NewContext(time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC), "UTC")
}

func TestProbability(t *testing.T) {
	neutral := habit.UserProfile{}

	tests := []struct {
		name string
		tc   temporal.Context
		sum  stats.Summary
		user habit.UserProfile
		want float64
	}{
		{
			name: "no signals stays at base",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1},
			user: neutral,
			want: 0.5,
		},
		{
			name: "best hour match",
			tc:   ctxAtHour(9),
			sum:  stats.Summary{BestHour: 9, WorstHour: 21},
			user: neutral,
			want: 0.7,
		},
		{
			name: "long streak and high rate",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1, Streak: 10, CompletionRate: 0.9},
			user: neutral,
			want: 0.75,
		},
		{
			name: "many misses",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1, ConsecutiveMisses: 3},
			user: neutral,
			want: 0.2,
		},
		{
			name: "single miss",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1, ConsecutiveMisses: 1},
			user: neutral,
			want: 0.35,
		},
		{
			name: "worst hour match",
			tc:   ctxAtHour(21),
			sum:  stats.Summary{BestHour: 9, WorstHour: 21},
			user: neutral,
			want: 0.3,
		},
		{
			name: "tired snooze in the evening",
			tc:   ctxAtHour(19),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1, LastSnoozeReason: habit.SnoozeTired},
			user: neutral,
			want: 0.35,
		},
		{
			name: "not home snooze in the morning",
			tc:   ctxAtHour(8),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1, LastSnoozeReason: habit.SnoozeNotHome},
			user: neutral,
			want: 0.4,
		},
		{
			name: "struggling user",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1},
			user: habit.UserProfile{CurrentState: habit.UserStateStruggling},
			want: 0.3,
		},
		{
			name: "motivated user",
			tc:   ctxAtHour(12),
			sum:  stats.Summary{BestHour: -1, WorstHour: -1},
			user: habit.UserProfile{CurrentState: habit.UserStateMotivated},
			want: 0.65,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Probability(tt.tc, tt.sum, tt.user), 0.001)
		})
	}
}

func TestProbabilityClamped(t *testing.T) {
	// Stack every positive adjustment on a Saturday at the best hour.
	sat := temporal.NewContext(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), "UTC")
	sum := stats.Summary{
		BestHour:       9,
		WorstHour:      21,
		Streak:         10,
		CompletionRate: 0.95,
		WeekendRate:    0.9,
	}
	p := Probability(sat, sum, habit.UserProfile{CurrentState: habit.UserStateMotivated})
	assert.Equal(t, 1.0, p)

	// And every negative one.
	sum = stats.Summary{BestHour: 21, WorstHour: 9, ConsecutiveMisses: 8}
	p = Probability(sat, sum, habit.UserProfile{CurrentState: habit.UserStateStruggling})
	assert.Equal(t, 0.0, p)
}

func TestOptimalStrategy(t *testing.T) {
	assert.Equal(t, StrategyGentleReminder, OptimalStrategy(0.8))
	assert.Equal(t, StrategyMotivationBoost, OptimalStrategy(0.5))
	assert.Equal(t, StrategyChallenge, OptimalStrategy(0.3))
	assert.Equal(t, StrategyEmpathySupport, OptimalStrategy(0.1))
}

func TestRisks(t *testing.T) {
	t.Run("streak at risk", func(t *testing.T) {
		assert.True(t, StreakAtRisk(stats.Summary{Streak: 6, CompletedToday: false}))
		assert.False(t, StreakAtRisk(stats.Summary{Streak: 6, CompletedToday: true}))
		assert.False(t, StreakAtRisk(stats.Summary{Streak: 5, CompletedToday: false}))
	})

	t.Run("motivation declining", func(t *testing.T) {
		h := &habit.Habit{
			Completions: []habit.Completion{{Timestamp: now.AddDate(0, 0, -1).UnixMilli()}},
			SnoozeEvents: []habit.SnoozeEvent{
				{Timestamp: now.UnixMilli()},
				{Timestamp: now.AddDate(0, 0, -1).UnixMilli()},
			},
		}
		assert.True(t, MotivationDeclining(h, now))

		h.SnoozeEvents = h.SnoozeEvents[:1]
		assert.False(t, MotivationDeclining(h, now))
	})

	t.Run("empty history reads as declining", func(t *testing.T) {
		assert.True(t, MotivationDeclining(&habit.Habit{}, now))
	})

	t.Run("habit forming window", func(t *testing.T) {
		assert.True(t, HabitForming(now.AddDate(0, 0, -30).UnixMilli(), now))
		assert.False(t, HabitForming(now.AddDate(0, 0, -70).UnixMilli(), now))
	})
}

func TestOpportunities(t *testing.T) {
	assert.True(t, CanBreakRecord(stats.Summary{Streak: 4, MaxStreak: 5}))
	assert.False(t, CanBreakRecord(stats.Summary{Streak: 5, MaxStreak: 5}))
	assert.False(t, CanBreakRecord(stats.Summary{Streak: 0, MaxStreak: 1}))

	assert.True(t, CanReachMilestone(6))
	assert.True(t, CanReachMilestone(29))
	assert.False(t, CanReachMilestone(5))
	assert.False(t, CanReachMilestone(100))

	w := OptimalWindow(stats.Summary{BestHour: 9})
	assert.NotNil(t, w)
	assert.InDelta(t, 8.5, w.StartHour, 0.001)
	assert.InDelta(t, 9.5, w.EndHour, 0.001)
	assert.Nil(t, OptimalWindow(stats.Summary{BestHour: -1}))
}

func TestAnalyze(t *testing.T) {
	h := &habit.Habit{
		ID:        "h1",
		Name:      "Read",
		CreatedAt: now.AddDate(0, 0, -20).UnixMilli(),
		Completions: []habit.Completion{
			{Timestamp: now.AddDate(0, 0, -1).UnixMilli()},
		},
	}
	sum := stats.Summary{
		Streak: 8, MaxStreak: 9, BestHour: 9, WorstHour: 21,
		Trend: stats.TrendStable, Momentum: stats.MomentumModerate,
	}
	b := Analyze(h, ctxAtHour(12), sum, habit.UserProfile{})

	assert.Equal(t, stats.TrendStable, b.Trend)
	assert.True(t, b.Risks.StreakAtRisk)
	assert.True(t, b.Risks.HabitForming)
	assert.True(t, b.Opportunities.CanBreakRecord)
	assert.NotNil(t, b.Opportunities.OptimalWindow)
	assert.GreaterOrEqual(t, b.Probability, 0.0)
	assert.LessOrEqual(t, b.Probability, 1.0)
}

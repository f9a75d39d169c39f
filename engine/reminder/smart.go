package reminder

import (
	"fmt"
	"time"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// StreakWarningHour is the late-evening slot for streak-risk warnings.
const StreakWarningHour = 20

// GenerateSmart creates the conditional notifications for a habit.
// Rules within a category are mutually exclusive; categories are
// evaluated independently. A rule whose computed time falls in quiet
// hours or the past yields nothing at all.
func GenerateSmart(h *habit.Habit, tc temporal.Context, sum stats.Summary) []Candidate {
	var out []Candidate
	add := func(c *Candidate) {
		if c != nil {
			out = append(out, *c)
		}
	}

	// Streak-based.
	switch {
	case sum.Streak > 10:
		add(streakCelebration(h, tc, sum))
	case sum.Streak == 0 && sum.ConsecutiveMisses > 0:
		add(postMissMotivation(h, tc, sum))
	case sum.Streak > 0 && sum.Streak < 3:
		add(newStreakSupport(h, tc, sum))
	}

	// Completion-rate-based.
	switch {
	case sum.CompletionRate > 0.8:
		add(positiveReinforcement(h, tc, sum))
	case sum.CompletionRate < 0.5:
		add(gentleMotivation(h, tc, sum))
	}

	// Streak at risk tonight.
	if sum.Streak > 5 && !sum.CompletedToday {
		add(streakWarning(h, tc, sum))
	}

	// Habitual late completion: nudge earlier.
	if h.AvgCompletionDelayMin > 60 {
		add(earlyReminder(h, tc))
	}

	return out
}

func streakCelebration(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	at := eveningTime(tc.Now, EveningHour)
	if at == nil {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     "🎉 " + h.Name,
			Body:      fmt.Sprintf("%d days strong! Incredible 🔥", sum.Streak),
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeCelebration,
		},
		EnrichKind:    "celebration",
		EnrichContext: fmt.Sprintf("streak %d days", sum.Streak),
		Tone:          "celebratory",
	}
}

func postMissMotivation(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	hour, minute := h.ReminderClock()
	at := temporal.AtHour(tc.Now, hour+2, minute)
	if !at.After(tc.Now) || temporal.IsQuietTime(at) {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     h.DisplayTitle(),
			Body:      "Every restart counts. Give it another go!",
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeMotivation,
		},
		EnrichKind:    "motivation",
		EnrichContext: fmt.Sprintf("%d consecutive misses", sum.ConsecutiveMisses),
		Tone:          "gentle push",
	}
}

func newStreakSupport(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	at := eveningTime(tc.Now, EveningHour)
	if at == nil {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     "💪 " + h.Name,
			Body:      fmt.Sprintf("Day %d and counting. You're building something", sum.Streak),
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeMotivation,
		},
		EnrichKind:    "support",
		EnrichContext: fmt.Sprintf("new streak %d days", sum.Streak),
		Tone:          "encouraging",
	}
}

func positiveReinforcement(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	at := eveningTime(tc.Now, EveningHour)
	if at == nil {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     "⭐ " + h.Name,
			Body:      "You're on a great run. Keep it up!",
			Timestamp: at.UnixMilli(),
			Type:      habit.TypePersonalized,
		},
		EnrichKind:    "praise",
		EnrichContext: fmt.Sprintf("high completion rate %.0f%%", sum.CompletionRate*100),
		Tone:          "proud",
	}
}

func gentleMotivation(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	at := afternoonTime(tc.Now)
	if at == nil {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     h.DisplayTitle(),
			Body:      "A small step today is still a step",
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeMotivation,
		},
		EnrichKind:    "push",
		EnrichContext: fmt.Sprintf("low completion rate %.0f%%", sum.CompletionRate*100),
		Tone:          "supportive without pressure",
	}
}

func streakWarning(h *habit.Habit, tc temporal.Context, sum stats.Summary) *Candidate {
	at := eveningTime(tc.Now, StreakWarningHour)
	if at == nil {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     "🔥 " + h.Name,
			Body:      fmt.Sprintf("Don't lose your streak! %d days and counting — there's still time", sum.Streak),
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeStreakWarning,
		},
	}
}

func earlyReminder(h *habit.Habit, tc temporal.Context) *Candidate {
	hour, minute := h.ReminderClock()
	at := temporal.AtHour(tc.Now, hour-1, minute)
	if !at.After(tc.Now) || temporal.IsQuietTime(at) {
		return nil
	}
	return &Candidate{
		Notification: habit.Notification{
			ID:        NewID(),
			HabitID:   h.ID,
			Title:     "⏰ " + h.Name,
			Body:      "A head start never hurts",
			Timestamp: at.UnixMilli(),
			Type:      habit.TypeReminder,
		},
		EnrichKind:    "reminder",
		EnrichContext: "early reminder",
		Tone:          "gentle",
	}
}

// eveningTime returns targetHour:00 today, rolling to tomorrow when
// already past, or nil when the result lands in quiet hours.
func eveningTime(now time.Time, targetHour int) *time.Time {
	at := temporal.AtHour(now, targetHour, 0)
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	if temporal.IsQuietTime(at) {
		return nil
	}
	return &at
}

// afternoonTime returns 14:00 today, rolling to tomorrow when already
// past, or nil in quiet hours.
func afternoonTime(now time.Time) *time.Time {
	return eveningTime(now, AfternoonHour)
}

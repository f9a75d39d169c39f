// Package reminder produces notification candidates: the guaranteed
// base reminders every habit gets, and the conditional smart
// notifications driven by behavioral signals.
package reminder

import (
	"fmt"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// Fixed local hours per slot. Anytime resolves dynamically.
const (
	MorningHour   = 8
	AfternoonHour = 14
	EveningHour   = 19
	DefaultHour   = 9
)

// Candidate is a notification plus the enrichment hints the text
// collaborator needs. An empty EnrichKind means the body is final.
type Candidate struct {
	habit.Notification

	EnrichKind    string
	EnrichContext string
	Tone          string
}

// NewID returns a fresh notification candidate ID.
func NewID() string {
	return "ntf-" + shortuuid.New()
}

// OptimalHour resolves the reminder hour for the anytime slot, in
// priority order: average historical completion hour, the configured
// reminder time, the preferred-slot default, then 09:00.
func OptimalHour(h *habit.Habit, sum stats.Summary) int {
	if sum.AvgHour >= 0 {
		return sum.AvgHour
	}
	if h.ReminderTime != "" {
		hour, _ := h.ReminderClock()
		return hour
	}
	switch h.PreferredSlot {
	case habit.SlotMorning:
		return MorningHour
	case habit.SlotAfternoon:
		return AfternoonHour
	case habit.SlotEvening:
		return EveningHour
	case habit.SlotAnytime:
		return 10
	}
	return DefaultHour
}

// SlotHour resolves the concrete local hour for a required slot.
func SlotHour(slot habit.Slot, optimal int) int {
	switch slot {
	case habit.SlotMorning:
		return MorningHour
	case habit.SlotAfternoon:
		return AfternoonHour
	case habit.SlotEvening:
		return EveningHour
	default:
		return optimal
	}
}

// GenerateBase creates the guaranteed reminders for the next two days,
// one pair per required slot. The today reminder is emitted only when
// the slot is still open and its time lies in the future; the tomorrow
// reminder is always emitted. Base reminders carry high priority and
// must survive every downstream stage except the universal
// quiet-hours/cap/spacing rules.
func GenerateBase(h *habit.Habit, tc temporal.Context, sum stats.Summary) []Candidate {
	optimal := OptimalHour(h, sum)

	var out []Candidate
	for _, slot := range h.EffectiveSlots() {
		hour := SlotHour(slot, optimal)

		if !h.SlotCompletedToday(slot) {
			today := temporal.AtHour(tc.Now, hour, 0)
			if today.After(tc.Now) {
				out = append(out, baseCandidate(h, slot, today.UnixMilli(), sum.Streak))
			}
		}

		tomorrow := temporal.AtHour(tc.Now.AddDate(0, 0, 1), hour, 0)
		out = append(out, baseCandidate(h, slot, tomorrow.UnixMilli(), sum.Streak))
	}
	return out
}

func baseCandidate(h *habit.Habit, slot habit.Slot, ts int64, streak int) Candidate {
	return Candidate{
		Notification: habit.Notification{
			ID:             NewID(),
			HabitID:        h.ID,
			Title:          h.DisplayTitle(),
			Body:           TemplateBody(h, slot, streak),
			Timestamp:      ts,
			Type:           habit.TypeBaseReminder,
			Slot:           slot,
			Priority:       "high",
			IsBaseReminder: true,
		},
		EnrichKind:    "reminder",
		EnrichContext: fmt.Sprintf("base reminder for %s slot", slot),
		Tone:          "friendly",
	}
}

// TemplateBody is the fallback reminder text used whenever enrichment
// is unavailable or fails.
func TemplateBody(h *habit.Habit, slot habit.Slot, streak int) string {
	emoji := slotEmoji(slot)
	switch {
	case streak > 7:
		return fmt.Sprintf("%s %d days in a row! Keep going 💪", emoji, streak)
	case streak > 0:
		return fmt.Sprintf("%s Day %d! Don't stop now", emoji, streak)
	default:
		return fmt.Sprintf("%s Time for %s!", emoji, h.Name)
	}
}

func slotEmoji(slot habit.Slot) string {
	switch slot {
	case habit.SlotMorning:
		return "🌅"
	case habit.SlotAfternoon:
		return "☀️"
	case habit.SlotEvening:
		return "🌙"
	default:
		return "⭐"
	}
}

// Package habit defines the domain model for the notification planning
// pipeline: habits, their event history, and the notifications the
// planner produces. The planner is stateless; callers supply the full
// relevant history on every request and own all persistence.
package habit

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Frequency is how many completions a habit expects per day.
type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyTwice  Frequency = "twice"
	FrequencyThrice Frequency = "thrice"
)

// Multi reports whether the habit expects more than one completion per day.
func (f Frequency) Multi() bool {
	return f == FrequencyTwice || f == FrequencyThrice
}

// Slot is a named time-of-day bucket a habit may require completion in.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotEvening   Slot = "evening"
	SlotAnytime   Slot = "anytime"
)

// NotificationType classifies a scheduled notification.
type NotificationType string

const (
	TypeBaseReminder  NotificationType = "base_reminder"
	TypeReminder      NotificationType = "reminder"
	TypeMotivation    NotificationType = "motivation"
	TypeCelebration   NotificationType = "celebration"
	TypePersonalized  NotificationType = "personalized"
	TypeStreakWarning NotificationType = "streak_warning"
)

// SnoozeReason is the user-supplied reason for deferring a notification.
type SnoozeReason string

const (
	SnoozeTired   SnoozeReason = "tired"
	SnoozeNotHome SnoozeReason = "notHome"
	SnoozeBusy    SnoozeReason = "busy"
)

// Completion records a single instant a habit was marked done.
// Multiple completions on one calendar day collapse to one completed day
// for streak and rate purposes.
type Completion struct {
	Timestamp int64 `json:"timestamp"` // epoch ms
}

// SnoozeEvent records a deferred notification. A snoozed day is
// explicitly not a missed day.
type SnoozeEvent struct {
	Timestamp int64        `json:"timestamp"` // epoch ms
	Reason    SnoozeReason `json:"reason,omitempty"`
}

// MissedEvent is a derived record for a calendar day with neither a
// completion nor a snooze. Immutable once created, one per day.
type MissedEvent struct {
	ID        string `json:"id"`
	HabitID   string `json:"habitId"`
	Date      int64  `json:"date"`      // epoch ms, aligned to local day start
	CreatedAt int64  `json:"createdAt"` // epoch ms
}

// MissedEventID builds the deterministic ID for a missed day record.
func MissedEventID(habitID string, dayStartMs int64) string {
	return fmt.Sprintf("missed-%s-%d", habitID, dayStartMs)
}

// Habit is the caller-owned input to one planning invocation. The
// pipeline treats it as read-only. Streak, CompletionRate and
// ConsecutiveMisses are client-derived hints; the engine recomputes them
// canonically from the history whenever completions are present.
type Habit struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Emoji        string    `json:"emoji,omitempty"`
	CreatedAt    int64     `json:"createdAt"`    // epoch ms
	ReminderTime string    `json:"reminderTime"` // "HH:MM"
	Frequency    Frequency `json:"frequency,omitempty"`

	RequiredSlots       []Slot `json:"requiredSlots,omitempty"`
	CompletedSlotsToday []Slot `json:"completedSlotsToday,omitempty"`
	PreferredSlot       Slot   `json:"preferredSlot,omitempty"`

	// AvgCompletionDelayMin is the client-observed average delay in
	// minutes between the reminder firing and the habit being completed.
	AvgCompletionDelayMin int `json:"avgCompletionDelay,omitempty"`

	Streak            int     `json:"streak,omitempty"`
	CompletionRate    float64 `json:"completionRate,omitempty"`
	ConsecutiveMisses int     `json:"consecutiveMisses,omitempty"`

	Completions  []Completion  `json:"completions,omitempty"`
	SnoozeEvents []SnoozeEvent `json:"snoozeEvents,omitempty"`
	MissedEvents []MissedEvent `json:"missedEvents,omitempty"`
}

// DisplayTitle is the notification title line for this habit.
func (h *Habit) DisplayTitle() string {
	if h.Emoji == "" {
		return h.Name
	}
	return h.Emoji + " " + h.Name
}

// EffectiveSlots returns the required slots, defaulting to anytime.
func (h *Habit) EffectiveSlots() []Slot {
	if len(h.RequiredSlots) == 0 {
		return []Slot{SlotAnytime}
	}
	return h.RequiredSlots
}

// SlotCompletedToday reports whether the slot was already completed today.
func (h *Habit) SlotCompletedToday(s Slot) bool {
	for _, c := range h.CompletedSlotsToday {
		if c == s {
			return true
		}
	}
	return false
}

// ReminderClock parses ReminderTime into hour and minute.
// Falls back to 09:00 when the field is empty or malformed.
func (h *Habit) ReminderClock() (hour, minute int) {
	hour, minute = 9, 0
	if h.ReminderTime == "" {
		return hour, minute
	}
	var hh, mm int
	if _, err := fmt.Sscanf(h.ReminderTime, "%d:%d", &hh, &mm); err != nil {
		return hour, minute
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return hour, minute
	}
	return hh, mm
}

// Validate checks the fields the planner cannot work without.
func (h *Habit) Validate() error {
	if h.ID == "" {
		return errors.New("habit id is required")
	}
	if h.Name == "" {
		return errors.Errorf("habit %s: name is required", h.ID)
	}
	if h.CreatedAt <= 0 {
		return errors.Errorf("habit %s: createdAt is required", h.ID)
	}
	switch h.Frequency {
	case "", FrequencyOnce, FrequencyTwice, FrequencyThrice:
	default:
		return errors.Errorf("habit %s: unknown frequency %q", h.ID, h.Frequency)
	}
	for _, s := range h.RequiredSlots {
		switch s {
		case SlotMorning, SlotAfternoon, SlotEvening, SlotAnytime:
		default:
			return errors.Errorf("habit %s: unknown slot %q", h.ID, s)
		}
	}
	return nil
}

// Notification is one scheduled local notification. Created fresh each
// planning cycle; the client stores and delivers it.
type Notification struct {
	ID        string           `json:"id"`
	HabitID   string           `json:"habitId"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Timestamp int64            `json:"timestamp"` // epoch ms
	Type      NotificationType `json:"type"`
	Slot      Slot             `json:"slot,omitempty"`
	Priority  string           `json:"priority,omitempty"`

	// IsBaseReminder marks the guaranteed reminders that downstream
	// filtering must never drop except for quiet-hours/cap/spacing rules.
	IsBaseReminder bool `json:"isBaseReminder,omitempty"`
}

// Time returns the scheduled time in the given location.
func (n *Notification) Time(loc *time.Location) time.Time {
	return time.UnixMilli(n.Timestamp).In(loc)
}

// UserState is the client-tracked coarse emotional state of the user.
type UserState string

const (
	UserStateMotivated  UserState = "motivated"
	UserStateStruggling UserState = "struggling"
	UserStateStable     UserState = "stable"
	UserStateDeclining  UserState = "declining"
)

// UserProfile carries the optional per-user signals the client tracks
// across habits. All fields default to neutral values.
type UserProfile struct {
	CurrentState  UserState `json:"currentState,omitempty"`
	PreferredTone string    `json:"preferredTone,omitempty"`
}

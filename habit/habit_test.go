package habit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	valid := func() *Habit {
		return &Habit{ID: "h1", Name: "Read", CreatedAt: 1700000000000}
	}

	tests := []struct {
		name    string
		mutate  func(h *Habit)
		wantErr string
	}{
		{"valid", func(*Habit) {}, ""},
		{"missing id", func(h *Habit) { h.ID = "" }, "id is required"},
		{"missing name", func(h *Habit) { h.Name = "" }, "name is required"},
		{"missing createdAt", func(h *Habit) { h.CreatedAt = 0 }, "createdAt is required"},
		{"bad frequency", func(h *Habit) { h.Frequency = "hourly" }, "unknown frequency"},
		{"bad slot", func(h *Habit) { h.RequiredSlots = []Slot{"dawn"} }, "unknown slot"},
		{"valid multi slot", func(h *Habit) {
			h.Frequency = FrequencyTwice
			h.RequiredSlots = []Slot{SlotMorning, SlotEvening}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid()
			tt.mutate(h)
			err := h.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestReminderClock(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
	}{
		{"07:30", 7, 30},
		{"23:59", 23, 59},
		{"", 9, 0},
		{"garbage", 9, 0},
		{"25:00", 9, 0},
		{"12:75", 9, 0},
	}
	for _, tt := range tests {
		h := &Habit{ReminderTime: tt.in}
		hour, minute := h.ReminderClock()
		assert.Equal(t, tt.hour, hour, "input %q", tt.in)
		assert.Equal(t, tt.minute, minute, "input %q", tt.in)
	}
}

func TestEffectiveSlots(t *testing.T) {
	assert.Equal(t, []Slot{SlotAnytime}, (&Habit{}).EffectiveSlots())
	assert.Equal(t, []Slot{SlotMorning}, (&Habit{RequiredSlots: []Slot{SlotMorning}}).EffectiveSlots())
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Read", (&Habit{Name: "Read"}).DisplayTitle())
	assert.Equal(t, "📚 Read", (&Habit{Name: "Read", Emoji: "📚"}).DisplayTitle())
}

func TestFrequencyMulti(t *testing.T) {
	assert.False(t, FrequencyOnce.Multi())
	assert.False(t, Frequency("").Multi())
	assert.True(t, FrequencyTwice.Multi())
	assert.True(t, FrequencyThrice.Multi())
}

func TestMissedEventID(t *testing.T) {
	assert.Equal(t, "missed-h1-1700000000000", MissedEventID("h1", 1700000000000))
}

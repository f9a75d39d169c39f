package planner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

var now = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type stubEnricher struct {
	text   string
	err    error
	delay  time.Duration
	onCall func()

	mu   sync.Mutex
	seen int
}

func (s *stubEnricher) Enrich(_ context.Context, _ *habit.Habit, _ stats.Summary, _, _, _ string) (string, error) {
	if s.onCall != nil {
		s.onCall()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.seen++
	s.mu.Unlock()
	return s.text, s.err
}

func (s *stubEnricher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen
}

func readingHabit() *habit.Habit {
	h := &habit.Habit{
		ID:            "h1",
		Name:          "Read",
		CreatedAt:     now.AddDate(0, 0, -10).UnixMilli(),
		RequiredSlots: []habit.Slot{habit.SlotEvening},
	}
	for i := 0; i < 5; i++ {
		h.Completions = append(h.Completions, habit.Completion{
			Timestamp: now.AddDate(0, 0, -i).UnixMilli(),
		})
	}
	return h
}

func request(habits ...*habit.Habit) *Request {
	return &Request{
		UserID:   "u1",
		Timezone: "UTC",
		Now:      now.UnixMilli(),
		Habits:   habits,
	}
}

func TestPlanHappyPath(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil)

	resp, err := p.Plan(context.Background(), request(readingHabit()))
	require.NoError(t, err)

	// Today's and tomorrow's evening reminders.
	require.Len(t, resp.Notifications, 2)
	for _, n := range resp.Notifications {
		assert.Equal(t, habit.TypeBaseReminder, n.Type)
		assert.True(t, n.IsBaseReminder)
		assert.Equal(t, 19, n.Time(time.UTC).Hour())
	}

	assert.Equal(t, now.UnixMilli()+48*60*60*1000, resp.ValidUntil)

	// Five completed days out of the last ten; the rest are backfilled.
	assert.Len(t, resp.NewMissedEvents, 6)
}

func TestPlanRejectsMalformedInput(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil)

	t.Run("missing user", func(t *testing.T) {
		req := request(readingHabit())
		req.UserID = ""
		_, err := p.Plan(context.Background(), req)
		assert.ErrorContains(t, err, "userId")
	})

	t.Run("one bad habit rejects the whole request", func(t *testing.T) {
		bad := readingHabit()
		bad.Name = ""
		_, err := p.Plan(context.Background(), request(readingHabit(), bad))
		assert.ErrorContains(t, err, "habits[1]")
	})
}

func TestPlanEnrichment(t *testing.T) {
	t.Run("generated text replaces templates", func(t *testing.T) {
		enricher := &stubEnricher{text: "fresh words"}
		p := New(DefaultConfig(), enricher, nil, nil)

		resp, err := p.Plan(context.Background(), request(readingHabit()))
		require.NoError(t, err)
		require.NotEmpty(t, resp.Notifications)
		for _, n := range resp.Notifications {
			assert.Equal(t, "fresh words", n.Body)
		}
		assert.Equal(t, 2, enricher.calls())
	})

	t.Run("enrichment failure keeps template text", func(t *testing.T) {
		enricher := &stubEnricher{err: context.DeadlineExceeded}
		p := New(DefaultConfig(), enricher, nil, nil)

		resp, err := p.Plan(context.Background(), request(readingHabit()))
		require.NoError(t, err)
		for _, n := range resp.Notifications {
			assert.NotEmpty(t, n.Body)
			assert.NotEqual(t, "fresh words", n.Body)
		}
	})

	t.Run("in-flight enrichment is joined on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// The first call cancels the request, then finishes slowly.
		// With concurrency 1 the second candidate never acquires a
		// slot, and planning must still wait for the first to land.
		enricher := &stubEnricher{text: "late words", delay: 30 * time.Millisecond, onCall: cancel}
		cfg := DefaultConfig()
		cfg.EnrichConcurrency = 1
		p := New(cfg, enricher, nil, nil)

		resp, err := p.Plan(ctx, request(readingHabit()))
		require.NoError(t, err)
		require.Len(t, resp.Notifications, 2)
		assert.Equal(t, 1, enricher.calls())

		seen := 0
		for _, n := range resp.Notifications {
			if n.Body == "late words" {
				seen++
			}
		}
		assert.Equal(t, 1, seen)
	})
}

func TestPlanLeavesHabitUntouched(t *testing.T) {
	p := New(DefaultConfig(), nil, nil, nil)
	h := readingHabit()

	first, err := p.Plan(context.Background(), request(h))
	require.NoError(t, err)
	require.NotEmpty(t, first.NewMissedEvents)

	assert.Empty(t, h.MissedEvents)
	assert.Len(t, h.Completions, 5)

	// The same input plans identically: the backfill delta was never
	// written back into the habit.
	second, err := p.Plan(context.Background(), request(h))
	require.NoError(t, err)
	assert.Equal(t, first.NewMissedEvents, second.NewMissedEvents)
}

func TestPlanOutputProperties(t *testing.T) {
	// A busier mix: a struggler, a long streak, and a multi-slot habit.
	struggler := &habit.Habit{
		ID:           "h2",
		Name:         "Meditate",
		CreatedAt:    now.AddDate(0, 0, -20).UnixMilli(),
		ReminderTime: "09:00",
		Completions: []habit.Completion{
			{Timestamp: now.AddDate(0, 0, -6).UnixMilli()},
		},
	}
	streaker := readingHabit()
	streaker.ID = "h3"
	for i := 5; i < 12; i++ {
		streaker.Completions = append(streaker.Completions, habit.Completion{
			Timestamp: now.AddDate(0, 0, -i).UnixMilli(),
		})
	}
	multi := &habit.Habit{
		ID:            "h4",
		Name:          "Hydrate",
		CreatedAt:     now.AddDate(0, 0, -5).UnixMilli(),
		Frequency:     habit.FrequencyThrice,
		RequiredSlots: []habit.Slot{habit.SlotMorning, habit.SlotAfternoon, habit.SlotEvening},
	}

	p := New(DefaultConfig(), nil, nil, nil)
	resp, err := p.Plan(context.Background(), request(struggler, streaker, multi))
	require.NoError(t, err)
	require.NotEmpty(t, resp.Notifications)

	cfg := DefaultConfig()
	perHabit := make(map[string][]habit.Notification)
	for _, n := range resp.Notifications {
		assert.False(t, temporal.IsQuietHour(n.Time(time.UTC).Hour()), "no quiet-hour deliveries")
		assert.Greater(t, n.Timestamp, now.UnixMilli(), "nothing in the past")
		perHabit[n.HabitID] = append(perHabit[n.HabitID], n)
	}

	for id, ns := range perHabit {
		for i := 1; i < len(ns); i++ {
			gap := ns[i].Timestamp - ns[i-1].Timestamp
			assert.GreaterOrEqual(t, gap, cfg.Admission.MinSpacing.Milliseconds(),
				"habit %s spacing", id)
		}
	}

	// Every habit keeps at least one notification.
	assert.Len(t, perHabit, 3)

	assert.LessOrEqual(t, len(resp.Notifications), cfg.Admission.GlobalCap)
}

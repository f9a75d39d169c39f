// Package planner orchestrates the full planning pipeline for one
// request: temporal context, missed-day backfill, statistics, base and
// smart candidate generation, text enrichment, and admission.
package planner

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/habitsense/engine/admission"
	"github.com/hrygo/habitsense/engine/behavior"
	"github.com/hrygo/habitsense/engine/intent"
	"github.com/hrygo/habitsense/engine/missed"
	"github.com/hrygo/habitsense/engine/reminder"
	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/engine/temporal"
	"github.com/hrygo/habitsense/habit"
)

// Request is one planning call for one user.
type Request struct {
	UserID      string             `json:"userId"`
	Timezone    string             `json:"timezone"`
	Now         int64              `json:"now"`
	Habits      []*habit.Habit     `json:"habits"`
	UserProfile *habit.UserProfile `json:"userProfile,omitempty"`
}

// Validate rejects the whole request on the first malformed habit.
// There is no partial scheduling for bad input.
func (r *Request) Validate() error {
	if r.UserID == "" {
		return errors.New("userId is required")
	}
	if r.Now <= 0 {
		return errors.New("now must be a positive epoch-ms timestamp")
	}
	for i, h := range r.Habits {
		if h == nil {
			return errors.Errorf("habits[%d] is null", i)
		}
		if err := h.Validate(); err != nil {
			return errors.Wrapf(err, "habits[%d]", i)
		}
	}
	return nil
}

// Response is the planning result.
type Response struct {
	Notifications   []habit.Notification `json:"notifications"`
	ValidUntil      int64                `json:"validUntil"`
	NewMissedEvents []habit.MissedEvent  `json:"newMissedEvents,omitempty"`
}

// Config carries the planning limits, threaded explicitly through every
// call. A Config value is never mutated after construction.
type Config struct {
	Admission         admission.Config
	EnrichTimeout     time.Duration
	EnrichConcurrency int64
	Validity          time.Duration
}

// DefaultConfig returns the standard planning limits.
func DefaultConfig() Config {
	return Config{
		Admission:         admission.DefaultConfig(),
		EnrichTimeout:     10 * time.Second,
		EnrichConcurrency: 4,
		Validity:          48 * time.Hour,
	}
}

// Enricher produces personalized text for one notification candidate.
// The summary carries the already-computed streak and rate signals so
// implementations never re-derive them. Enrichment is best-effort: any
// error keeps the template body.
type Enricher interface {
	Enrich(ctx context.Context, h *habit.Habit, sum stats.Summary, kind, detail, tone string) (string, error)
}

// Recorder receives planning metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObservePlanDuration(d time.Duration)
	AddScheduled(notifType string, n int)
	IncEnrichmentFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObservePlanDuration(time.Duration) {}
func (nopRecorder) AddScheduled(string, int)          {}
func (nopRecorder) IncEnrichmentFailure()             {}

// state names the orchestrator stages, in execution order.
type state string

const (
	stateCollectContext  state = "COLLECT_CONTEXT"
	stateGenerateBase    state = "GENERATE_BASE"
	stateEnrichText      state = "ENRICH_TEXT"
	stateAnalyzeBehavior state = "ANALYZE_BEHAVIOR"
	statePredictIntent   state = "PREDICT_INTENT"
	stateMergeCandidates state = "MERGE_CANDIDATES"
	stateAdmit           state = "ADMIT"
	stateDone            state = "DONE"
)

// Planner runs the pipeline. Safe for concurrent use.
type Planner struct {
	cfg      Config
	enricher Enricher
	rec      Recorder
	logger   *slog.Logger
	sem      *semaphore.Weighted
}

// New builds a planner. enricher may be nil, in which case every
// notification keeps its template body. rec may be nil.
func New(cfg Config, enricher Enricher, rec Recorder, logger *slog.Logger) *Planner {
	if rec == nil {
		rec = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		cfg:      cfg,
		enricher: enricher,
		rec:      rec,
		logger:   logger,
		sem:      semaphore.NewWeighted(cfg.EnrichConcurrency),
	}
}

// Plan runs the full pipeline for one request. Habits that fail in
// isolation are substituted with a single fallback reminder; malformed
// input rejects the whole request.
func (p *Planner) Plan(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.UnixMilli(req.Now)
	tc := temporal.NewContext(now, req.Timezone)

	var user habit.UserProfile
	if req.UserProfile != nil {
		user = *req.UserProfile
	}

	var (
		all       []habit.Notification
		allMissed []habit.MissedEvent
	)
	for _, h := range req.Habits {
		notifs, delta := p.planHabit(ctx, h, tc, user)
		all = append(all, notifs...)
		allMissed = append(allMissed, delta...)
	}

	all = admission.FilterGlobal(all, p.cfg.Admission)
	for _, n := range all {
		p.rec.AddScheduled(string(n.Type), 1)
	}
	p.rec.ObservePlanDuration(time.Since(start))

	p.logger.Info("planning complete",
		"user", req.UserID,
		"habits", len(req.Habits),
		"notifications", len(all),
		"newMissed", len(allMissed),
		"elapsed", time.Since(start))

	return &Response{
		Notifications:   all,
		ValidUntil:      req.Now + p.cfg.Validity.Milliseconds(),
		NewMissedEvents: allMissed,
	}, nil
}

// planHabit runs the per-habit state machine. A panic anywhere inside
// is contained to this habit and replaced with one fallback reminder at
// the configured reminder time.
func (p *Planner) planHabit(ctx context.Context, h *habit.Habit, tc temporal.Context, user habit.UserProfile) (notifs []habit.Notification, delta []habit.MissedEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("habit planning failed, substituting fallback",
				"habit", h.ID, "panic", r)
			notifs = []habit.Notification{p.fallbackReminder(h, tc)}
			delta = nil
		}
	}()

	var (
		sum    stats.Summary
		events []habit.MissedEvent
		base   []reminder.Candidate
		smart  []reminder.Candidate
		b      behavior.Behavior
		in     intent.Intent
		emo    intent.EmotionalState
	)

	for st := stateCollectContext; st != stateDone; {
		switch st {
		case stateCollectContext:
			// The habit is caller-owned and read-only; the backfill
			// delta is merged into a local slice.
			delta = missed.Track(h, tc.Now)
			events = make([]habit.MissedEvent, 0, len(h.MissedEvents)+len(delta))
			events = append(append(events, h.MissedEvents...), delta...)
			sum = stats.Summarize(h, tc.Now)
			st = stateGenerateBase

		case stateGenerateBase:
			base = reminder.GenerateBase(h, tc, sum)
			st = stateEnrichText

		case stateEnrichText:
			p.enrichAll(ctx, h, sum, base)
			st = stateAnalyzeBehavior

		case stateAnalyzeBehavior:
			b = behavior.Analyze(h, tc, sum, user)
			st = statePredictIntent

		case statePredictIntent:
			in = intent.Predict(h, tc, b, sum, user)
			emo = intent.DetectEmotionalState(sum)
			st = stateMergeCandidates

		case stateMergeCandidates:
			smart = reminder.GenerateSmart(h, tc, sum)
			tone := toneFor(behavior.OptimalStrategy(b.Probability), emo.State)
			for i := range smart {
				if smart[i].EnrichKind != "" {
					smart[i].Tone = tone
				}
			}
			p.enrichAll(ctx, h, sum, smart)
			st = stateAdmit

		case stateAdmit:
			merged := make([]habit.Notification, 0, len(base)+len(smart))
			for _, c := range base {
				merged = append(merged, c.Notification)
			}
			for _, c := range smart {
				merged = append(merged, c.Notification)
			}
			notifs = admission.FilterHabit(merged, h, sum, tc, p.cfg.Admission)
			st = stateDone
		}
	}

	p.logger.Debug("habit planned",
		"habit", h.ID,
		"streak", sum.Streak,
		"intent", in.Type,
		"state", emo.State,
		"probability", b.Probability,
		"missed7d", missed.Count(events, 7, tc.Now),
		"missedRun", missed.Consecutive(events, tc.Now),
		"notifications", len(notifs))
	return notifs, delta
}

// enrichAll replaces template bodies with generated text, fanning out
// over the candidates under the shared concurrency bound. Failures and
// timeouts leave the template body in place.
func (p *Planner) enrichAll(ctx context.Context, h *habit.Habit, sum stats.Summary, cands []reminder.Candidate) {
	if p.enricher == nil {
		return
	}

	var g errgroup.Group
	for i := range cands {
		c := &cands[i]
		if c.EnrichKind == "" {
			continue
		}
		// Acquire only fails when the context is gone. In-flight
		// enrichments still write candidate bodies, so they must be
		// joined before the candidates are read again.
		if err := p.sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer p.sem.Release(1)

			ectx, cancel := context.WithTimeout(ctx, p.cfg.EnrichTimeout)
			defer cancel()

			text, err := p.enricher.Enrich(ectx, h, sum, c.EnrichKind, c.EnrichContext, c.Tone)
			if err != nil || text == "" {
				p.rec.IncEnrichmentFailure()
				return nil
			}
			c.Body = text
			return nil
		})
	}
	g.Wait()
}

// fallbackReminder is the non-negotiable floor for a habit whose
// planning failed: one plain reminder at the configured time, today if
// still ahead, otherwise tomorrow.
func (p *Planner) fallbackReminder(h *habit.Habit, tc temporal.Context) habit.Notification {
	hour, minute := h.ReminderClock()
	at := temporal.AtHour(tc.Now, hour, minute)
	if !at.After(tc.Now) {
		at = at.AddDate(0, 0, 1)
	}
	return habit.Notification{
		ID:             reminder.NewID(),
		HabitID:        h.ID,
		Title:          h.DisplayTitle(),
		Body:           reminder.TemplateBody(h, habit.SlotAnytime, 0),
		Timestamp:      at.UnixMilli(),
		Type:           habit.TypeBaseReminder,
		Slot:           habit.SlotAnytime,
		Priority:       "high",
		IsBaseReminder: true,
	}
}

// toneFor picks the enrichment tone for smart notifications from the
// behavioral strategy and the emotional state.
func toneFor(s behavior.Strategy, st intent.State) string {
	if st == intent.StateStruggling || s == behavior.StrategyEmpathySupport {
		return "warm and empathetic"
	}
	switch s {
	case behavior.StrategyChallenge:
		return "playful challenge"
	case behavior.StrategyMotivationBoost:
		return "energizing"
	default:
		return "friendly"
	}
}

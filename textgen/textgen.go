// Package textgen generates personalized notification text through an
// OpenAI-compatible provider. It is a best-effort collaborator: results
// are cached coarsely, calls are rate limited and bounded by a timeout,
// and any failure degrades to a canned phrase instead of an error.
package textgen

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hrygo/habitsense/cache"
	"github.com/hrygo/habitsense/engine/stats"
	"github.com/hrygo/habitsense/habit"
)

// ErrUnavailable is returned when no provider is configured at all. The
// planner keeps template text in that case.
var ErrUnavailable = errors.New("textgen: no provider configured")

// Config configures the text-generation provider.
type Config struct {
	Provider    string  // openai, deepseek, ollama, or any compatible endpoint
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default 120
	Temperature float32 // default 0.8
	Timeout     time.Duration
	RPS         float64 // outbound requests per second, default 5
}

// CacheRecorder receives cache hit/miss counts.
type CacheRecorder interface {
	IncCacheHit()
	IncCacheMiss()
}

type nopRecorder struct{}

func (nopRecorder) IncCacheHit()  {}
func (nopRecorder) IncCacheMiss() {}

const (
	cacheCapacity = 2000
	cacheTTL      = 7 * 24 * time.Hour
)

// Generator produces notification text. Safe for concurrent use.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	texts       *cache.LRU[string, string]
	rec         CacheRecorder
}

// New builds a generator. An empty APIKey yields a generator whose
// Enrich always returns ErrUnavailable.
func New(cfg Config, rec CacheRecorder) *Generator {
	if rec == nil {
		rec = nopRecorder{}
	}
	g := &Generator{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		texts:       cache.New[string, string](cacheCapacity, cacheTTL),
		rec:         rec,
	}
	if g.model == "" {
		g.model = openai.GPT4oMini
	}
	if g.maxTokens <= 0 {
		g.maxTokens = 120
	}
	if g.temperature <= 0 {
		g.temperature = 0.8
	}
	if g.timeout <= 0 {
		g.timeout = 10 * time.Second
	}
	if cfg.RPS <= 0 {
		g.limiter.SetLimit(rate.Limit(5))
	}

	if cfg.APIKey == "" {
		return g
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	} else if cfg.Provider == "deepseek" {
		clientConfig.BaseURL = "https://api.deepseek.com"
	}
	clientConfig.HTTPClient = &http.Client{Timeout: g.timeout}
	g.client = openai.NewClientWithConfig(clientConfig)
	return g
}

// Enrich returns generated text for one notification. The caller passes
// its already-computed summary; it is only read for the cache buckets.
// On any provider failure Enrich returns a canned phrase for the kind,
// never an error; ErrUnavailable only signals that no provider exists.
func (g *Generator) Enrich(ctx context.Context, h *habit.Habit, sum stats.Summary, kind, detail, tone string) (string, error) {
	if g.client == nil {
		return "", ErrUnavailable
	}

	key := cacheKey(h.Name, sum, kind, tone)
	if text, ok := g.texts.Get(key); ok {
		g.rec.IncCacheHit()
		return text, nil
	}
	g.rec.IncCacheMiss()

	if err := g.limiter.Wait(ctx); err != nil {
		return fallback(kind), nil
	}

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(cctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(h, kind, detail, tone)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return fallback(kind), nil
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	text = strings.Trim(text, `"`)
	if text == "" {
		return fallback(kind), nil
	}
	if len([]rune(text)) > 160 {
		text = string([]rune(text)[:160])
	}

	g.texts.Put(key, text, cacheTTL)
	return text, nil
}

const systemPrompt = "You write one-line push notification texts for a habit tracker. " +
	"Reply with the notification text only: a single sentence, under 120 characters, " +
	"at most one emoji, no quotes, no preamble."

func userPrompt(h *habit.Habit, kind, detail, tone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Habit: %s.\n", h.Name)
	fmt.Fprintf(&b, "Notification kind: %s.\n", kind)
	if detail != "" {
		fmt.Fprintf(&b, "Situation: %s.\n", detail)
	}
	if tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", tone)
	}
	b.WriteString("Write the notification.")
	return b.String()
}

// cacheKey buckets streak and completion rate coarsely so similar
// situations share one generated phrase.
func cacheKey(name string, sum stats.Summary, kind, tone string) string {
	return strings.Join([]string{
		name, kind, streakBucket(sum.Streak), rateBucket(sum.CompletionRate), tone,
	}, "|")
}

func streakBucket(streak int) string {
	switch {
	case streak <= 0:
		return "0"
	case streak <= 3:
		return "1-3"
	case streak <= 7:
		return "4-7"
	case streak <= 14:
		return "8-14"
	default:
		return "15+"
	}
}

func rateBucket(r float64) string {
	switch {
	case r < 0.5:
		return "low"
	case r < 0.8:
		return "medium"
	default:
		return "high"
	}
}

var fallbacks = map[string]string{
	"reminder":    "Time for your habit! Small steps, big results ⭐",
	"celebration": "What a streak! You should be proud 🎉",
	"motivation":  "Today is a good day to get back on track 💪",
	"support":     "One day at a time. You've got this",
	"praise":      "You're doing great, keep the rhythm going ⭐",
	"push":        "A tiny effort today keeps the habit alive",
	"urgent":      "Still time today. Don't let the streak slip 🔥",
}

func fallback(kind string) string {
	if text, ok := fallbacks[kind]; ok {
		return text
	}
	return fallbacks["reminder"]
}

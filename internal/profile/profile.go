// Package profile holds the runtime configuration of the service,
// assembled from flags and HABITSENSE_* environment variables.
package profile

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Server
	Mode    string // "prod", "dev"
	Addr    string
	Port    int
	Version string

	// Text generation (OpenAI-compatible protocol; provider picks the
	// default base URL)
	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMTimeout  int // seconds

	// Feedback relay
	TelegramBotToken string
	TelegramChatID   int64

	// Payments
	YooKassaShopID    string
	YooKassaSecretKey string
	YooKassaReturnURL string
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsTextGenEnabled reports whether a text-generation provider is
// configured.
func (p *Profile) IsTextGenEnabled() bool {
	return p.LLMAPIKey != ""
}

// IsRelayEnabled reports whether the Telegram relay is configured.
func (p *Profile) IsRelayEnabled() bool {
	return p.TelegramBotToken != "" && p.TelegramChatID != 0
}

// IsPaymentsEnabled reports whether the payments client is configured.
func (p *Profile) IsPaymentsEnabled() bool {
	return p.YooKassaShopID != "" && p.YooKassaSecretKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

// FromEnv fills in every field that was not already set by flags.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("HABITSENSE_LLM_PROVIDER", p.LLMProvider)
	p.LLMAPIKey = getEnvOrDefault("HABITSENSE_LLM_API_KEY", p.LLMAPIKey)
	p.LLMBaseURL = getEnvOrDefault("HABITSENSE_LLM_BASE_URL", p.LLMBaseURL)
	p.LLMModel = getEnvOrDefault("HABITSENSE_LLM_MODEL", p.LLMModel)
	p.LLMTimeout = int(getEnvOrDefaultInt64("HABITSENSE_LLM_TIMEOUT", int64(p.LLMTimeout)))

	p.TelegramBotToken = getEnvOrDefault("HABITSENSE_TELEGRAM_BOT_TOKEN", p.TelegramBotToken)
	p.TelegramChatID = getEnvOrDefaultInt64("HABITSENSE_TELEGRAM_CHAT_ID", p.TelegramChatID)

	p.YooKassaShopID = getEnvOrDefault("HABITSENSE_YOOKASSA_SHOP_ID", p.YooKassaShopID)
	p.YooKassaSecretKey = getEnvOrDefault("HABITSENSE_YOOKASSA_SECRET_KEY", p.YooKassaSecretKey)
	p.YooKassaReturnURL = getEnvOrDefault("HABITSENSE_YOOKASSA_RETURN_URL", p.YooKassaReturnURL)
}

// Validate checks the profile for mistakes that should stop startup.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}
	if p.Port <= 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}
	if p.LLMTimeout < 0 {
		return errors.Errorf("invalid llm timeout %d", p.LLMTimeout)
	}
	if p.TelegramBotToken != "" && p.TelegramChatID == 0 {
		return errors.New("telegram bot token set without a chat id")
	}
	if (p.YooKassaShopID == "") != (p.YooKassaSecretKey == "") {
		return errors.New("yookassa shop id and secret key must be set together")
	}
	return nil
}

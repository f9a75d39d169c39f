// Package server assembles the HTTP surface: the planning API, health
// and metrics endpoints, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/habitsense/engine/planner"
	"github.com/hrygo/habitsense/internal/profile"
	"github.com/hrygo/habitsense/metrics"
	"github.com/hrygo/habitsense/plugin/payments/yookassa"
	"github.com/hrygo/habitsense/plugin/relay/telegram"
	"github.com/hrygo/habitsense/server/router/apiv1"
	"github.com/hrygo/habitsense/textgen"
)

// Server is the HTTP server plus its wired services.
type Server struct {
	Profile *profile.Profile

	echo   *echo.Echo
	logger *slog.Logger
}

// NewServer wires the full service graph from the profile and returns a
// ready-to-start server.
func NewServer(ctx context.Context, prof *profile.Profile) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	logger := slog.Default()

	exporter := metrics.New(metrics.DefaultConfig())

	var enricher planner.Enricher
	if prof.IsTextGenEnabled() {
		enricher = textgen.New(textgen.Config{
			Provider: prof.LLMProvider,
			Model:    prof.LLMModel,
			APIKey:   prof.LLMAPIKey,
			BaseURL:  prof.LLMBaseURL,
			Timeout:  time.Duration(prof.LLMTimeout) * time.Second,
		}, exporter)
		logger.Info("text generation enabled", "provider", prof.LLMProvider, "model", prof.LLMModel)
	} else {
		logger.Info("text generation disabled, using template text")
	}

	var relay *telegram.Relay
	if prof.IsRelayEnabled() {
		r, err := telegram.New(telegram.Config{
			BotToken: prof.TelegramBotToken,
			ChatID:   prof.TelegramChatID,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "create telegram relay")
		}
		relay = r
	}

	var payments *yookassa.Client
	if prof.IsPaymentsEnabled() {
		p, err := yookassa.New(yookassa.Config{
			ShopID:    prof.YooKassaShopID,
			SecretKey: prof.YooKassaSecretKey,
			ReturnURL: prof.YooKassaReturnURL,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create payments client")
		}
		payments = p
	}

	pln := planner.New(planner.DefaultConfig(), enricher, exporter, logger)

	api := apiv1.NewAPIV1Service(prof, pln, relay, payments)
	api.RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": prof.Version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	return &Server{Profile: prof, echo: e, logger: logger}, nil
}

// Start begins serving. It returns once the listener stops.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	s.logger.Info("server listening", "addr", addr, "mode", s.Profile.Mode)
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests with a bounded grace period.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", "error", err)
	}
	s.logger.Info("server stopped")
}

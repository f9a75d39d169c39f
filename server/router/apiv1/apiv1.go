// Package apiv1 exposes the JSON REST API.
package apiv1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/habitsense/engine/planner"
	"github.com/hrygo/habitsense/internal/profile"
	"github.com/hrygo/habitsense/plugin/payments/yookassa"
	"github.com/hrygo/habitsense/plugin/relay/telegram"
)

// APIV1Service bundles the handlers and their collaborators. Relay and
// Payments are optional; their routes answer 503 when unconfigured.
type APIV1Service struct {
	Profile  *profile.Profile
	Planner  *planner.Planner
	Relay    *telegram.Relay
	Payments *yookassa.Client

	logger *slog.Logger
}

// NewAPIV1Service creates the API service.
func NewAPIV1Service(prof *profile.Profile, pln *planner.Planner, relay *telegram.Relay, payments *yookassa.Client) *APIV1Service {
	return &APIV1Service{
		Profile:  prof,
		Planner:  pln,
		Relay:    relay,
		Payments: payments,
		logger:   slog.Default(),
	}
}

// RegisterRoutes mounts the v1 routes.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/schedule", s.Schedule)
	g.POST("/feedback", s.Feedback)
	g.POST("/payments", s.CreatePayment)
	g.GET("/payments/:id", s.GetPayment)
}

// Schedule runs the planning pipeline for one request.
func (s *APIV1Service) Schedule(c echo.Context) error {
	var req planner.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}

	resp, err := s.Planner.Plan(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if s.Relay != nil {
		go s.Relay.SendPlanSummary(context.Background(), req.UserID, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// Feedback accepts a user feedback event and forwards it to the relay.
func (s *APIV1Service) Feedback(c echo.Context) error {
	var ev telegram.Event
	if err := c.Bind(&ev); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if ev.UserID == "" || ev.Kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId and kind are required")
	}

	if s.Relay != nil {
		go s.Relay.SendEvent(context.Background(), ev)
	} else {
		s.logger.Info("feedback received, relay disabled", "user", ev.UserID, "kind", ev.Kind)
	}
	return c.NoContent(http.StatusAccepted)
}

type createPaymentRequest struct {
	Value       string            `json:"value"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

// CreatePayment starts a payment and returns its confirmation URL.
func (s *APIV1Service) CreatePayment(c echo.Context) error {
	if s.Payments == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "payments are not configured")
	}

	var req createPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if req.Value == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "value is required")
	}

	payment, err := s.Payments.CreatePayment(c.Request().Context(), yookassa.CreateRequest{
		Value:       req.Value,
		Currency:    req.Currency,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "payment creation failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, payment)
}

// GetPayment returns the current status of a payment.
func (s *APIV1Service) GetPayment(c echo.Context) error {
	if s.Payments == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "payments are not configured")
	}

	payment, err := s.Payments.GetPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "payment lookup failed").SetInternal(err)
	}
	return c.JSON(http.StatusOK, payment)
}

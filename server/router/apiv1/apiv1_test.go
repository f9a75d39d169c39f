package apiv1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/habitsense/engine/planner"
	"github.com/hrygo/habitsense/internal/profile"
)

func newTestServer() *echo.Echo {
	e := echo.New()
	svc := NewAPIV1Service(
		&profile.Profile{Mode: "dev", Port: 28090},
		planner.New(planner.DefaultConfig(), nil, nil, nil),
		nil,
		nil,
	)
	svc.RegisterRoutes(e)
	return e
}

func TestSchedule(t *testing.T) {
	e := newTestServer()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	t.Run("plans a valid request", func(t *testing.T) {
		body := fmt.Sprintf(`{
			"userId": "u1",
			"timezone": "UTC",
			"now": %d,
			"habits": [{
				"id": "h1",
				"name": "Read",
				"createdAt": %d,
				"requiredSlots": ["evening"]
			}]
		}`, now.UnixMilli(), now.AddDate(0, 0, -3).UnixMilli())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp planner.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Notifications)
		assert.Equal(t, now.UnixMilli()+48*60*60*1000, resp.ValidUntil)
		assert.NotEmpty(t, resp.NewMissedEvents)
	})

	t.Run("rejects invalid habits", func(t *testing.T) {
		body := fmt.Sprintf(`{
			"userId": "u1",
			"timezone": "UTC",
			"now": %d,
			"habits": [{"id": "h1"}]
		}`, now.UnixMilli())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects garbage body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule", strings.NewReader("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFeedback(t *testing.T) {
	e := newTestServer()

	t.Run("accepted without a relay", func(t *testing.T) {
		body := `{"userId": "u1", "kind": "rating", "rating": 5}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("requires user and kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentsUnconfigured(t *testing.T) {
	e := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"value":"100.00"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/payments/p-1", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// Package yookassa is a minimal YooKassa payments client: create a
// payment and query its status. Requests carry idempotence keys so
// retries are safe.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

// Config holds the shop credentials.
type Config struct {
	ShopID    string
	SecretKey string
	BaseURL   string // test environments override this
	ReturnURL string
}

// Amount is a money value in the YooKassa wire format.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Payment is the subset of the payment object the service uses.
type Payment struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Paid         bool   `json:"paid"`
	Amount       Amount `json:"amount"`
	Description  string `json:"description"`
	Confirmation struct {
		Type            string `json:"type"`
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
	Metadata map[string]string `json:"metadata"`
}

// CreateRequest describes a new payment.
type CreateRequest struct {
	Value       string
	Currency    string
	Description string
	Metadata    map[string]string
}

// Client talks to the YooKassa API.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a client. Credentials are required.
func New(cfg Config) (*Client, error) {
	if cfg.ShopID == "" || cfg.SecretKey == "" {
		return nil, errors.New("yookassa shop id and secret key are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// CreatePayment creates a redirect-confirmation payment and returns the
// pending payment with its confirmation URL.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error) {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}
	body := map[string]any{
		"amount":      Amount{Value: req.Value, Currency: currency},
		"capture":     true,
		"description": req.Description,
		"confirmation": map[string]string{
			"type":       "redirect",
			"return_url": c.cfg.ReturnURL,
		},
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment returns the current state of a payment.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, buf)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.SetBasicAuth(c.cfg.ShopID, c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "yookassa request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("yookassa %s %s: status %d: %s",
			method, path, resp.StatusCode, truncate(string(raw), 300))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}

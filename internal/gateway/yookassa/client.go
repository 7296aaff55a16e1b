// Package yookassa is a minimal client for the YooKassa payments REST API.
//
// A Client is constructed explicitly from configuration and passed to the
// services that need it; it holds no global state. Each call is a single HTTP
// round trip bounded by the client timeout. Calls are never retried here:
// retrying a payment creation is a caller decision and needs a new
// idempotence key.
//
// Failures fall into three classes:
//   - *APIError: the gateway answered with a non-2xx status
//   - ErrUnreachable: no response was received (dial, TLS, timeout)
//   - ErrRequestPreparation: the request could not be built
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.yookassa.ru/v3"

// HeaderIdempotenceKey is the header the gateway deduplicates creation calls by.
const HeaderIdempotenceKey = "Idempotence-Key"

const maxErrorBody = 64 << 10

var (
	// ErrUnreachable wraps transport failures where no response was received.
	ErrUnreachable = errors.New("yookassa: gateway unreachable")
	// ErrRequestPreparation wraps failures to marshal or build a request.
	ErrRequestPreparation = errors.New("yookassa: request preparation failed")
)

// APIError is returned when the gateway responds with a non-2xx status.
type APIError struct {
	StatusCode  int    `json:"-"`
	Type        string `json:"type"`
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Parameter   string `json:"parameter"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("yookassa: %d %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("yookassa: %d: %s", e.StatusCode, e.Description)
}

// Config holds the credentials and endpoint of a Client.
type Config struct {
	ShopID    string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration

	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to the YooKassa API with HTTP basic auth.
type Client struct {
	shopID    string
	secretKey string
	baseURL   string
	http      *http.Client
}

// New creates a Client. An empty BaseURL selects DefaultBaseURL and a
// non-positive Timeout selects 10s.
func New(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		shopID:    cfg.ShopID,
		secretKey: cfg.SecretKey,
		baseURL:   base,
		http:      hc,
	}
}

// CreatePayment creates a payment. idempotenceKey must be unique per logical
// creation attempt.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest, idempotenceKey string) (*Payment, error) {
	if strings.TrimSpace(idempotenceKey) == "" {
		return nil, fmt.Errorf("%w: empty idempotence key", ErrRequestPreparation)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", ErrRequestPreparation, err)
	}
	var out Payment
	if err := c.do(ctx, http.MethodPost, "/payments", body, idempotenceKey, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPayment fetches a payment by its gateway id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty payment id", ErrRequestPreparation)
	}
	var out Payment
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, idemKey string, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestPreparation, err)
	}
	req.SetBasicAuth(c.shopID, c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set(HeaderIdempotenceKey, idemKey)
	}

	lg := zerolog.Ctx(ctx)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Warn().Err(err).Str("method", method).Str("path", path).Msg("yookassa request failed")
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	lg.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("yookassa call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Description == "" {
			apiErr.Description = strings.TrimSpace(string(raw))
			if apiErr.Description == "" {
				apiErr.Description = http.StatusText(resp.StatusCode)
			}
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			StatusCode:  http.StatusBadGateway,
			Code:        "invalid_response",
			Description: "could not decode gateway response: " + err.Error(),
		}
	}
	return nil
}

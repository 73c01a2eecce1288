package crm

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-crm/internal/pricing"
)

// ErrUnavailable indicates the CRM backend could not be reached or answered
// with a server error.
var ErrUnavailable = errors.New("crm backend unavailable")

// ErrRejected indicates the CRM backend refused the submitted document.
var ErrRejected = errors.New("crm backend rejected document")

// Product is a catalog entry as served by the CRM backend.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"productName"`
	Description   string  `json:"description"`
	ListPrice     float64 `json:"listPrice"`
	PurchasePrice float64 `json:"purchasePrice"`
}

// Submission is the document posted to the CRM backend when a draft is finalised.
type Submission struct {
	Kind      string             `json:"kind"`
	Subject   string             `json:"subject"`
	PartyName string             `json:"partyName"`
	Currency  string             `json:"currency"`
	Products  []pricing.LineItem `json:"products"`
	Tax       pricing.TaxConfig  `json:"tax"`
	Totals    pricing.Totals     `json:"totals"`
}

// Receipt is the CRM backend acknowledgement for a submitted document.
type Receipt struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	CreatedAt time.Time `json:"createdAt"`
}

// Client talks to the CRM backend over HTTP. Idempotent reads retry with
// backoff behind an optional circuit breaker; submissions never retry so a
// flaky network cannot create duplicate documents.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	MaxAttempts int
	RetryBase   time.Duration
	Breaker     *Breaker
}

// NewClient constructs a client with an instrumented transport.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		MaxAttempts: 3,
		RetryBase:   200 * time.Millisecond,
		Breaker:     NewBreaker(5, 0.5, 30*time.Second),
	}
}

// ListProducts fetches the product catalog. The optional query narrows results
// server-side when the backend supports it.
func (c *Client) ListProducts(ctx context.Context, query string) ([]Product, error) {
	endpoint := c.BaseURL + "/products"
	if strings.TrimSpace(query) != "" {
		endpoint += "?q=" + url.QueryEscape(query)
	}
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Data []Product `json:"data"`
	}
	if err := c.doIdempotent(req, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// SubmitQuote posts a finalised quote document.
func (c *Client) SubmitQuote(ctx context.Context, sub Submission) (Receipt, error) {
	return c.submit(ctx, "/quotes", sub)
}

// SubmitPurchaseOrder posts a finalised purchase order document.
func (c *Client) SubmitPurchaseOrder(ctx context.Context, sub Submission) (Receipt, error) {
	return c.submit(ctx, "/purchase-orders", sub)
}

func (c *Client) submit(ctx context.Context, path string, sub Submission) (Receipt, error) {
	ctx, span := otel.Tracer("crm.Client").Start(ctx, "Client.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("crm.document_kind", sub.Kind),
		attribute.String("crm.path", path),
	)

	body, err := json.Marshal(sub)
	if err != nil {
		span.RecordError(err)
		return Receipt{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Data Receipt `json:"data"`
	}
	if err := c.do(req, http.StatusCreated, &out); err != nil {
		span.RecordError(err)
		return Receipt{}, err
	}
	return out.Data, nil
}

// PingCRM probes the backend for readiness checks.
func (c *Client) PingCRM(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := c.newRequest(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "crm-api/1.0")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read crm response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%w: status %d body %s", ErrRejected, resp.StatusCode, truncate(payload, 256))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode crm response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/jinsharnammedia/commerce/pkg/errors"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Config holds payment gateway credentials and endpoint configuration.
// KeyID is public (it is handed to the browser checkout widget); KeySecret
// must never leave the server.
type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Currency  string
}

// Intent is a payment intent created at the gateway. The client completes
// the payment against this intent and comes back with a payment id and
// signature.
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to the payment gateway's order API.
type Client struct {
	httpClient HTTPDoer
	cfg        Config
	logger     *slog.Logger
}

// NewClient creates a gateway client. The HTTPDoer should be constructed
// without automatic retries: replaying a create-intent call can produce
// duplicate intents for the same checkout.
func NewClient(httpClient HTTPDoer, cfg Config, logger *slog.Logger) *Client {
	return &Client{httpClient: httpClient, cfg: cfg, logger: logger}
}

// KeyID returns the public key id clients need to open the payment widget.
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	return c.cfg.Currency
}

type createIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateIntent registers a payment intent for the given amount (minor units)
// at the gateway. Any gateway failure is surfaced as ServiceUnavailable: the
// checkout can be retried by the caller, nothing has been persisted yet.
func (c *Client) CreateIntent(ctx context.Context, amount int64, receipt string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:   amount,
		Currency: c.cfg.Currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal intent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		c.logger.ErrorContext(ctx, "payment gateway call failed",
			slog.String("receipt", receipt),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable("payment gateway unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.ErrorContext(ctx, "payment gateway rejected intent",
			slog.String("receipt", receipt),
			slog.Int("status", resp.StatusCode),
		)
		return nil, apperrors.ServiceUnavailable(
			fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var intent Intent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return nil, fmt.Errorf("decode intent response: %w", err)
	}

	c.logger.InfoContext(ctx, "payment intent created",
		slog.String("intent_id", intent.ID),
		slog.Int64("amount", intent.Amount),
		slog.String("currency", intent.Currency),
	)

	return &intent, nil
}

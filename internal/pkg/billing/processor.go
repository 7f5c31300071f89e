package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eldarmv/listora/internal/pkg/env"
)

const defaultProcessorAPIBaseURL = "https://api.paywire.dev"

// PaymentProcessor is the outbound interface to the external payment
// provider. Only intent creation is needed; confirmation arrives through
// the webhook.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error)
}

// IntentRequest describes one payment intent. Amount is in minor units.
type IntentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IntentResponse is the processor's answer to an intent request.
type IntentResponse struct {
	IntentID     string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// ProcessorClient talks to the payment processor's REST API.
type ProcessorClient struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewProcessorClientFromEnv builds a client from PAYMENT_* environment keys.
// The HTTP timeout bounds every processor call; on timeout the local
// PaymentRecord stays pending and is reconciled by a later webhook.
func NewProcessorClientFromEnv() *ProcessorClient {
	return &ProcessorClient{
		APIKey:     strings.TrimSpace(env.GetEnv("PAYMENT_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("PAYMENT_API_BASE_URL", defaultProcessorAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreateIntent opens a payment intent with the processor.
func (c *ProcessorClient) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("PAYMENT_API_KEY is not configured")
	}
	if req.Amount <= 0 {
		return nil, errors.New("intent amount must be positive")
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, errors.New("intent currency is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/v1/payment_intents", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// A fresh key per request keeps processor-side retries from minting
	// duplicate intents.
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment intent request failed: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	var out IntentResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.IntentID) == "" {
		return nil, errors.New("processor returned empty intent id")
	}
	if strings.TrimSpace(out.ClientSecret) == "" {
		return nil, errors.New("processor returned empty client secret")
	}
	return &out, nil
}

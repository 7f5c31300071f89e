package billing

import (
	"encoding/json"
	"errors"
	"strings"
)

// Webhook event types delivered by the payment processor.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// IntentResult is what the intent endpoint hands back to the client. For a
// zero-price plan no processor round trip happens and FreePlan is set.
type IntentResult struct {
	FreePlan     bool   `json:"free_plan"`
	IntentID     string `json:"intent_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// IntentMetadata is attached to every processor intent so the webhook can
// correlate the payment back to a user, plan and role.
type IntentMetadata struct {
	UserID   uint   `json:"user_id"`
	PlanID   uint   `json:"plan_id"`
	Role     string `json:"role"`
	PlanName string `json:"plan_name"`
}

// Event is the normalized webhook payload shape.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the processor intent reference and failure detail.
type EventData struct {
	IntentID      string `json:"intent_id"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// ParseEvent decodes a raw webhook body into an Event.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, err
	}
	if strings.TrimSpace(evt.Type) == "" {
		return nil, errors.New("webhook payload missing event type")
	}
	if strings.TrimSpace(evt.Data.IntentID) == "" {
		return nil, errors.New("webhook payload missing intent_id")
	}
	return &evt, nil
}

// NotificationPort delivers best-effort user notifications. Failures are
// logged and swallowed by callers, never propagated into the billing state
// machine.
type NotificationPort interface {
	Notify(userID uint, notificationType, content string, referenceID uint) error
}

// AnalyticsPort records best-effort analytics events, same delivery contract
// as NotificationPort.
type AnalyticsPort interface {
	Track(event string, userID uint) error
}

// Locker is a best-effort distributed lock used to serialize subscription
// replacement per (user, role) and to single-flight the expiration sweeper.
type Locker interface {
	Acquire(key string, ttlSeconds int) (bool, error)
	Release(key string) error
}

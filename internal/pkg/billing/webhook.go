package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/eldarmv/listora/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// ProcessEvent routes a verified webhook event. It is safe under duplicate
// and out-of-order delivery: the pending->terminal flip on the payment
// record is a compare-and-set, so a replayed event becomes a no-op before
// any subscription mutation happens.
func (s *Service) ProcessEvent(ctx context.Context, evt *Event) error {
	switch evt.Type {
	case EventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, evt)
	case EventPaymentFailed:
		return s.handlePaymentFailed(ctx, evt)
	default:
		log.Infof("[Billing] ignoring webhook event type %s", evt.Type)
		return nil
	}
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, evt *Event) error {
	_ = ctx
	rec, err := s.repo.GetPaymentRecordByIntentID(evt.Data.IntentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The intent may belong to another environment; acknowledge and move on.
			log.Infof("[Billing] payment-succeeded for unknown intent %s, discarding", evt.Data.IntentID)
			return nil
		}
		return err
	}

	// Idempotency gate: only the delivery that wins the CAS grants the
	// entitlement. Everything after this point runs at most once per intent.
	flipped, err := s.repo.MarkPaymentSucceeded(rec.IntentID, s.now())
	if err != nil {
		return err
	}
	if !flipped {
		log.Infof("[Billing] intent %s already terminal, duplicate delivery discarded", rec.IntentID)
		return nil
	}

	plan, err := s.repo.GetPlanByID(rec.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Payment is recorded but the entitlement cannot be granted;
			// left for manual reconciliation.
			log.Errorf("[Billing] intent %s references missing plan %d, skipping activation", rec.IntentID, rec.PlanID)
			return nil
		}
		return err
	}

	sub, err := s.activateSubscription(rec.UserID, rec.Role, plan)
	if err != nil {
		// Primary effect failed after the status flip: the payment stays
		// recorded as succeeded without an entitlement. Propagate so the
		// delivery is retried and the gap is visible for reconciliation.
		return fmt.Errorf("activate subscription for intent %s: %w", rec.IntentID, err)
	}

	s.trackBestEffort(EventSubscriptionActivated, rec.UserID)
	s.notifyBestEffort(rec.UserID, models.NotificationTypeSubscription,
		fmt.Sprintf("Payment received. Your %s plan is now active.", plan.Name), sub.ID)
	return nil
}

func (s *Service) handlePaymentFailed(ctx context.Context, evt *Event) error {
	_ = ctx
	reason := evt.Data.FailureReason
	if reason == "" {
		reason = "payment failed"
	}

	flipped, err := s.repo.MarkPaymentFailed(evt.Data.IntentID, reason, s.now())
	if err != nil {
		return err
	}
	if !flipped {
		// Unknown intent or already terminal; either way nothing to do.
		log.Infof("[Billing] payment-failed for intent %s ignored (missing or terminal)", evt.Data.IntentID)
		return nil
	}

	if rec, err := s.repo.GetPaymentRecordByIntentID(evt.Data.IntentID); err == nil {
		s.trackBestEffort(EventPaymentFailedRecorded, rec.UserID)
	}
	return nil
}

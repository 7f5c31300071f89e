package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eldarmv/listora/app/models"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const activationLockTTLSeconds = 30

// Service owns the subscription lifecycle: eligibility, payment intents,
// free-plan activation, cancellation and the webhook-driven paid path.
type Service struct {
	repo      Repository
	processor PaymentProcessor
	locker    Locker
	notify    NotificationPort
	analytics AnalyticsPort

	now func() time.Time
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, processor PaymentProcessor, locker Locker, notify NotificationPort, analytics AnalyticsPort) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		locker:    locker,
		notify:    notify,
		analytics: analytics,
		now:       time.Now,
	}
}

// NewServiceFromDB creates a billing service with the default production
// wiring: GORM repository, env-configured processor, Redis locker and ports.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(
		NewRepository(db),
		NewProcessorClientFromEnv(),
		NewRedisLocker(),
		NewDBNotificationPort(db),
		NewRedisAnalyticsPort(),
	)
}

// SetNowFunc overrides the service clock (used by tests).
func (s *Service) SetNowFunc(now func() time.Time) {
	s.now = now
}

// CreateIntent validates eligibility and opens a payment intent with the
// external processor. Zero-price plans short-circuit with FreePlan=true and
// produce no PaymentRecord; activation for them goes through
// ActivateFreePlan. For paid plans the returned client secret is handed to
// the client for confirmation and a pending PaymentRecord is persisted.
func (s *Service) CreateIntent(ctx context.Context, userID, planID uint, role string) (*IntentResult, error) {
	user, plan, r, err := s.checkEligibility(userID, planID, role)
	if err != nil {
		return nil, err
	}

	if plan.IsFree() {
		return &IntentResult{FreePlan: true}, nil
	}

	meta := IntentMetadata{
		UserID:   user.ID,
		PlanID:   plan.ID,
		Role:     r,
		PlanName: plan.Name,
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.CreateIntent(ctx, IntentRequest{
		Amount:   plan.Price,
		Currency: plan.Currency,
		Metadata: map[string]string{
			"user_id":   fmt.Sprintf("%d", user.ID),
			"plan_id":   fmt.Sprintf("%d", plan.ID),
			"role":      r,
			"plan_name": plan.Name,
		},
	})
	if err != nil {
		return nil, WrapError(KindExternal, CodeProcessorFailed, "payment processor rejected the intent request", err)
	}

	rec := &models.PaymentRecord{
		UserID:   user.ID,
		PlanID:   plan.ID,
		Role:     r,
		IntentID: intent.IntentID,
		Amount:   plan.Price,
		Currency: plan.Currency,
		Status:   models.PaymentStatusPending,
		Metadata: string(metaJSON),
	}
	if err := s.repo.CreatePaymentRecord(rec); err != nil {
		return nil, err
	}

	return &IntentResult{
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// ActivateFreePlan activates a zero-price plan synchronously. Paid plans are
// rejected: entitlements for them exist only after processor confirmation
// through the webhook.
func (s *Service) ActivateFreePlan(ctx context.Context, userID, planID uint, role string) (*models.Subscription, error) {
	_ = ctx
	user, plan, r, err := s.checkEligibility(userID, planID, role)
	if err != nil {
		return nil, err
	}
	if !plan.IsFree() {
		return nil, NewError(KindValidation, CodeRequiresPayment, "paid plans activate through the payment flow")
	}

	sub, err := s.activateSubscription(user.ID, r, plan)
	if err != nil {
		return nil, err
	}

	s.trackBestEffort(EventSubscriptionActivated, user.ID)
	s.notifyBestEffort(user.ID, models.NotificationTypeSubscription,
		fmt.Sprintf("Your %s plan is now active.", plan.Name), sub.ID)
	return sub, nil
}

// Cancel cancels the caller's active subscription for the given role.
func (s *Service) Cancel(ctx context.Context, userID uint, role string) error {
	_ = ctx
	r := normalizeRole(role)
	if r == "" {
		return NewError(KindValidation, CodeInvalidRole, "unknown role")
	}

	cancelled, err := s.repo.CancelActiveSubscription(userID, r)
	if err != nil {
		return err
	}
	if !cancelled {
		return NewError(KindNotFound, CodeNoSubscription, "no active subscription for this role")
	}

	s.trackBestEffort(EventSubscriptionCancelled, userID)
	return nil
}

// CurrentSubscription returns the caller's active subscription for a role,
// or nil when there is none. A row whose end date already passed is expired
// lazily and persisted before returning nil.
func (s *Service) CurrentSubscription(ctx context.Context, userID uint, role string) (*models.Subscription, error) {
	_ = ctx
	r := normalizeRole(role)
	if r == "" {
		return nil, NewError(KindValidation, CodeInvalidRole, "unknown role")
	}

	sub, err := s.repo.GetActiveSubscription(userID, r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if sub.IsStale(s.now()) {
		if _, err := s.repo.MarkSubscriptionExpired(sub.ID); err != nil {
			return nil, err
		}
		s.trackBestEffort(EventSubscriptionExpired, userID)
		return nil, nil
	}
	return sub, nil
}

// checkEligibility runs the ordered precondition chain shared by the intent
// and free-activation paths. Each failure carries its own denial code.
func (s *Service) checkEligibility(userID, planID uint, role string) (*models.User, *models.Plan, string, error) {
	r := normalizeRole(role)
	if r == "" {
		return nil, nil, "", NewError(KindValidation, CodeInvalidRole, "unknown role")
	}

	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", NewError(KindNotFound, CodeUserNotFound, "user not found")
		}
		return nil, nil, "", err
	}

	if !user.HasRole(r) {
		return nil, nil, "", NewError(KindEligibility, CodeRoleMissing, "user does not hold this role")
	}
	if !user.IsVerified() {
		return nil, nil, "", NewError(KindEligibility, CodeNotVerified, "account verification is not approved")
	}
	if !user.IsActive() {
		return nil, nil, "", NewError(KindEligibility, CodeAccountSuspended, "account is suspended or banned")
	}

	if key := models.RoleDisabledKey(r); key != "" {
		disabled, err := s.repo.GetSettingValue(key)
		if err != nil {
			return nil, nil, "", err
		}
		if disabled == "true" {
			return nil, nil, "", NewError(KindEligibility, CodeRoleDisabled, "this role is currently disabled")
		}
	}

	plan, err := s.repo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, "", NewError(KindNotFound, CodePlanNotFound, "plan not found")
		}
		return nil, nil, "", err
	}
	if !plan.IsActive {
		return nil, nil, "", NewError(KindEligibility, CodePlanInactive, "plan is not available")
	}
	if !plan.AllowsRole(r) {
		return nil, nil, "", NewError(KindEligibility, CodePlanRoleMismatch, "plan is not eligible for this role")
	}

	return user, plan, r, nil
}

// activateSubscription replaces the active subscription for (userID, role)
// with a fresh one for plan. The per-key lock plus the transactional
// cancel-then-insert keeps concurrent activations from leaving two active
// rows for the same pair.
func (s *Service) activateSubscription(userID uint, role string, plan *models.Plan) (*models.Subscription, error) {
	lockKey := activationLockKey(userID, role)
	acquired, err := s.locker.Acquire(lockKey, activationLockTTLSeconds)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, NewError(KindConflict, CodeActivationConflict, "another activation for this role is in progress")
	}
	defer func() {
		if err := s.locker.Release(lockKey); err != nil {
			log.Warnf("[Billing] failed to release activation lock %s: %v", lockKey, err)
		}
	}()

	now := s.now()
	sub := &models.Subscription{
		UserID:    userID,
		PlanID:    plan.ID,
		Role:      role,
		Status:    models.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   now.Add(plan.Duration()),
	}
	if err := s.repo.ReplaceActiveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) trackBestEffort(event string, userID uint) {
	if s.analytics == nil {
		return
	}
	if err := s.analytics.Track(event, userID); err != nil {
		log.Warnf("[Billing] analytics track %s failed: %v", event, err)
	}
}

func (s *Service) notifyBestEffort(userID uint, notificationType, content string, referenceID uint) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(userID, notificationType, content, referenceID); err != nil {
		log.Warnf("[Billing] notification to user %d failed: %v", userID, err)
	}
}

package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eldarmv/listora/app/models"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mu sync.Mutex

	users    map[uint]*models.User
	plans    map[uint]*models.Plan
	settings map[string]string
	payments map[string]*models.PaymentRecord
	subs     []*models.Subscription

	nextSubID  uint
	replaceErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    map[uint]*models.User{},
		plans:    map[uint]*models.Plan{},
		settings: map[string]string{},
		payments: map[string]*models.PaymentRecord{},
	}
}

func (r *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) GetPlanByID(id uint) (*models.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) GetSettingValue(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings[key], nil
}

func (r *fakeRepo) CreatePaymentRecord(rec *models.PaymentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[rec.IntentID]; exists {
		return errors.New("duplicate intent id")
	}
	rec.ID = uint(len(r.payments) + 1)
	cp := *rec
	r.payments[rec.IntentID] = &cp
	return nil
}

func (r *fakeRepo) GetPaymentRecordByIntentID(intentID string) (*models.PaymentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.payments[intentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRepo) MarkPaymentSucceeded(intentID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.payments[intentID]
	if !ok || rec.Status != models.PaymentStatusPending {
		return false, nil
	}
	rec.Status = models.PaymentStatusSucceeded
	rec.ProcessedAt = &at
	return true, nil
}

func (r *fakeRepo) MarkPaymentFailed(intentID string, reason string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.payments[intentID]
	if !ok || rec.Status != models.PaymentStatusPending {
		return false, nil
	}
	rec.Status = models.PaymentStatusFailed
	rec.FailureReason = reason
	rec.ProcessedAt = &at
	return true, nil
}

func (r *fakeRepo) GetActiveSubscription(userID uint, role string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UserID == userID && sub.Role == role && sub.Status == models.SubscriptionStatusActive {
			cp := *sub
			if plan, ok := r.plans[sub.PlanID]; ok {
				pcp := *plan
				cp.Plan = &pcp
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) ReplaceActiveSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	for _, existing := range r.subs {
		if existing.UserID == sub.UserID && existing.Role == sub.Role && existing.Status == models.SubscriptionStatusActive {
			existing.Status = models.SubscriptionStatusCancelled
		}
	}
	r.nextSubID++
	sub.ID = r.nextSubID
	cp := *sub
	r.subs = append(r.subs, &cp)
	return nil
}

func (r *fakeRepo) CancelActiveSubscription(userID uint, role string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.UserID == userID && sub.Role == role && sub.Status == models.SubscriptionStatusActive {
			sub.Status = models.SubscriptionStatusCancelled
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.subs {
		if existing.ID == sub.ID {
			cp := *sub
			r.subs[i] = &cp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeRepo) MarkSubscriptionExpired(id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		if sub.ID == id && sub.Status == models.SubscriptionStatusActive {
			sub.Status = models.SubscriptionStatusExpired
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) ListExpiredActive(now time.Time) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && !sub.EndDate.After(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListExpiringSoon(now time.Time, window time.Duration) ([]models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Subscription
	for _, sub := range r.subs {
		if sub.Status == models.SubscriptionStatusActive && sub.AutoRenew &&
			sub.EndDate.After(now) && !sub.EndDate.After(now.Add(window)) {
			out = append(out, *sub)
		}
	}
	return out, nil
}

// fakeLocker tracks acquire/release calls; acquisition can be forced to fail.
type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	denyAll  bool
	acquires []string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(key string, ttlSeconds int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires = append(l.acquires, key)
	if l.denyAll || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Release(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakeProcessor returns a canned intent and records requests.
type fakeProcessor struct {
	mu       sync.Mutex
	requests []IntentRequest
	response *IntentResponse
	err      error
}

func (p *fakeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*IntentResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	if p.response != nil {
		return p.response, nil
	}
	return &IntentResponse{IntentID: "pi_test", ClientSecret: "cs_test", Status: "requires_confirmation"}, nil
}

type notifyEntry struct {
	userID           uint
	notificationType string
	content          string
}

type fakeNotifier struct {
	mu      sync.Mutex
	entries []notifyEntry
	err     error
}

func (n *fakeNotifier) Notify(userID uint, notificationType, content string, referenceID uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.entries = append(n.entries, notifyEntry{userID: userID, notificationType: notificationType, content: content})
	return nil
}

type fakeAnalytics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeAnalytics() *fakeAnalytics {
	return &fakeAnalytics{counts: map[string]int{}}
}

func (a *fakeAnalytics) Track(event string, userID uint) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[event]++
	return nil
}

type testEnv struct {
	svc       *Service
	repo      *fakeRepo
	locker    *fakeLocker
	processor *fakeProcessor
	notifier  *fakeNotifier
	analytics *fakeAnalytics
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		repo:      newFakeRepo(),
		locker:    newFakeLocker(),
		processor: &fakeProcessor{},
		notifier:  &fakeNotifier{},
		analytics: newFakeAnalytics(),
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(env.repo, env.processor, env.locker, env.notifier, env.analytics)
	env.svc.SetNowFunc(func() time.Time { return env.now })
	return env
}

func (e *testEnv) addUser(id uint, mutate ...func(*models.User)) *models.User {
	u := &models.User{
		ID:                 id,
		Name:               "Test User",
		Email:              "user@example.com",
		IsLandlord:         true,
		IsSeller:           true,
		Status:             models.STATUS_ACTIVE,
		VerificationStatus: models.VERIFICATION_APPROVED,
	}
	for _, m := range mutate {
		m(u)
	}
	e.repo.users[id] = u
	return u
}

func (e *testEnv) addPlan(id uint, mutate ...func(*models.Plan)) *models.Plan {
	p := &models.Plan{
		ID:                    id,
		Name:                  models.PlanNamePremium,
		Price:                 2499,
		Currency:              "EUR",
		BillingPeriod:         models.BillingPeriodMonthly,
		DurationDays:          30,
		FeaturedListingsCount: 2,
		BoostedVisibility:     true,
		Role:                  models.RoleBoth,
		IsActive:              true,
	}
	for _, m := range mutate {
		m(p)
	}
	e.repo.plans[id] = p
	return p
}

func TestCreateIntent_PaidPlan(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10)

	res, err := env.svc.CreateIntent(context.Background(), 1, 10, "seller")
	require.NoError(t, err)
	assert.False(t, res.FreePlan)
	assert.Equal(t, "pi_test", res.IntentID)
	assert.Equal(t, "cs_test", res.ClientSecret)

	rec, err := env.repo.GetPaymentRecordByIntentID("pi_test")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, rec.Status)
	assert.Equal(t, uint(1), rec.UserID)
	assert.Equal(t, uint(10), rec.PlanID)
	assert.Equal(t, "seller", rec.Role)
	assert.Equal(t, int64(2499), rec.Amount)

	require.Len(t, env.processor.requests, 1)
	assert.Equal(t, "seller", env.processor.requests[0].Metadata["role"])

	// No subscription exists until the webhook confirms the payment.
	_, err = env.repo.GetActiveSubscription(1, "seller")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreateIntent_FreePlanShortCircuits(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})

	res, err := env.svc.CreateIntent(context.Background(), 1, 10, "landlord")
	require.NoError(t, err)
	assert.True(t, res.FreePlan)
	assert.Empty(t, res.IntentID)
	assert.Empty(t, env.processor.requests, "free plans must not reach the processor")
	assert.Empty(t, env.repo.payments, "free plans must not create payment records")
}

func TestCreateIntent_ProcessorFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10)
	env.processor.err = errors.New("connection refused")

	_, err := env.svc.CreateIntent(context.Background(), 1, 10, "seller")
	require.Error(t, err)
	assert.Equal(t, KindExternal, KindOf(err))
	assert.Equal(t, CodeProcessorFailed, CodeOf(err))
	assert.Empty(t, env.repo.payments, "failed intent must leave no payment record")
}

func TestCreateIntent_EligibilityDenials(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		planID   uint
		role     string
		mutate   func(env *testEnv)
		wantKind ErrorKind
		wantCode string
	}{
		{
			name: "unknown role", userID: 1, planID: 10, role: "admin",
			mutate:   func(env *testEnv) {},
			wantKind: KindValidation, wantCode: CodeInvalidRole,
		},
		{
			name: "user not found", userID: 99, planID: 10, role: "seller",
			mutate:   func(env *testEnv) {},
			wantKind: KindNotFound, wantCode: CodeUserNotFound,
		},
		{
			name: "role not held", userID: 1, planID: 10, role: "landlord",
			mutate: func(env *testEnv) {
				env.repo.users[1].IsLandlord = false
			},
			wantKind: KindEligibility, wantCode: CodeRoleMissing,
		},
		{
			name: "not verified", userID: 1, planID: 10, role: "seller",
			mutate: func(env *testEnv) {
				env.repo.users[1].VerificationStatus = models.VERIFICATION_PENDING
			},
			wantKind: KindEligibility, wantCode: CodeNotVerified,
		},
		{
			name: "suspended", userID: 1, planID: 10, role: "seller",
			mutate: func(env *testEnv) {
				env.repo.users[1].Status = models.STATUS_SUSPENDED
			},
			wantKind: KindEligibility, wantCode: CodeAccountSuspended,
		},
		{
			name: "role disabled", userID: 1, planID: 10, role: "seller",
			mutate: func(env *testEnv) {
				env.repo.settings[models.SettingKeySellerDisabled] = "true"
			},
			wantKind: KindEligibility, wantCode: CodeRoleDisabled,
		},
		{
			name: "plan not found", userID: 1, planID: 99, role: "seller",
			mutate:   func(env *testEnv) {},
			wantKind: KindNotFound, wantCode: CodePlanNotFound,
		},
		{
			name: "plan inactive", userID: 1, planID: 10, role: "seller",
			mutate: func(env *testEnv) {
				env.repo.plans[10].IsActive = false
			},
			wantKind: KindEligibility, wantCode: CodePlanInactive,
		},
		{
			name: "plan role mismatch", userID: 1, planID: 10, role: "seller",
			mutate: func(env *testEnv) {
				env.repo.plans[10].Role = models.RoleLandlord
			},
			wantKind: KindEligibility, wantCode: CodePlanRoleMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addUser(1)
			env.addPlan(10)
			tt.mutate(env)

			_, err := env.svc.CreateIntent(context.Background(), tt.userID, tt.planID, tt.role)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, KindOf(err))
			assert.Equal(t, tt.wantCode, CodeOf(err))
		})
	}
}

func TestEligibility_SuspensionCheckedBeforeKillSwitch(t *testing.T) {
	// A suspended user with the kill switch on must see the suspension code.
	env := newTestEnv(t)
	env.addUser(1, func(u *models.User) { u.Status = models.STATUS_BANNED })
	env.addPlan(10)
	env.repo.settings[models.SettingKeySellerDisabled] = "true"

	_, err := env.svc.CreateIntent(context.Background(), 1, 10, "seller")
	require.Error(t, err)
	assert.Equal(t, CodeAccountSuspended, CodeOf(err))
}

func TestActivateFreePlan(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})

	sub, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "landlord")
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, env.now, sub.StartDate)
	assert.Equal(t, env.now.Add(30*24*time.Hour), sub.EndDate)

	assert.Equal(t, 1, env.analytics.counts[EventSubscriptionActivated])
	require.Len(t, env.notifier.entries, 1)
	assert.Equal(t, models.NotificationTypeSubscription, env.notifier.entries[0].notificationType)
}

func TestActivateFreePlan_RejectsPaidPlan(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10)

	_, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "seller")
	require.Error(t, err)
	assert.Equal(t, CodeRequiresPayment, CodeOf(err))
	assert.Empty(t, env.repo.subs, "paid plan must not self-activate")
}

func TestActivateFreePlan_ReplacesExistingActive(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})
	env.addPlan(20, func(p *models.Plan) { p.Name = models.PlanNameStandard; p.Price = 999 })

	first, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "landlord")
	require.NoError(t, err)

	second, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "landlord")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Exactly one active row per (user, role) after the replacement.
	active := 0
	for _, sub := range env.repo.subs {
		if sub.UserID == 1 && sub.Role == "landlord" && sub.Status == models.SubscriptionStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestActivateFreePlan_ActivationLockContention(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})
	env.locker.denyAll = true

	_, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "landlord")
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, CodeActivationConflict, CodeOf(err))
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})

	_, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "seller")
	require.NoError(t, err)

	require.NoError(t, env.svc.Cancel(context.Background(), 1, "seller"))
	assert.Equal(t, 1, env.analytics.counts[EventSubscriptionCancelled])

	// Cancelling again finds nothing active.
	err = env.svc.Cancel(context.Background(), 1, "seller")
	require.Error(t, err)
	assert.Equal(t, CodeNoSubscription, CodeOf(err))

	// The cancelled row stays terminal, it is never resurrected.
	_, err = env.repo.GetActiveSubscription(1, "seller")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCancel_InvalidRole(t *testing.T) {
	env := newTestEnv(t)
	err := env.svc.Cancel(context.Background(), 1, "manager")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidRole, CodeOf(err))
}

func TestCurrentSubscription_LazilyExpiresStaleRow(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(1)
	env.addPlan(10, func(p *models.Plan) {
		p.Name = models.PlanNameFree
		p.Price = 0
	})

	sub, err := env.svc.ActivateFreePlan(context.Background(), 1, 10, "seller")
	require.NoError(t, err)

	// Still active just before the end date.
	env.now = sub.EndDate.Add(-time.Minute)
	got, err := env.svc.CurrentSubscription(context.Background(), 1, "seller")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sub.ID, got.ID)

	// Past the end date the row is expired on read.
	env.now = sub.EndDate.Add(time.Minute)
	got, err = env.svc.CurrentSubscription(context.Background(), 1, "seller")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, env.analytics.counts[EventSubscriptionExpired])

	for _, s := range env.repo.subs {
		if s.ID == sub.ID {
			assert.Equal(t, models.SubscriptionStatusExpired, s.Status)
		}
	}
}

func TestCurrentSubscription_NoneReturnsNil(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.svc.CurrentSubscription(context.Background(), 1, "seller")
	require.NoError(t, err)
	assert.Nil(t, got)
}

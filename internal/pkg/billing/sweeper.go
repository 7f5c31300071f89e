package billing

import (
	"fmt"
	"sync"
	"time"

	"github.com/eldarmv/listora/app/models"
	"github.com/gofiber/fiber/v2/log"
)

const (
	sweepLockKey        = "billing:lock:sweep"
	sweepLockTTLSeconds = 300

	reminderDedupTTLSeconds = 24 * 60 * 60
)

// Sweeper periodically reconciles the subscription ledger against the
// clock: reminds auto-renewing subscribers whose plan is about to lapse and
// expires rows whose end date already passed. Runs overlapping-safe: a
// single-flight lock skips a tick while a slow run is still in progress.
type Sweeper struct {
	svc       *Service
	interval  time.Duration
	lookahead time.Duration

	ticker  *time.Ticker
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper over the given billing service.
func NewSweeper(svc *Service, interval, lookahead time.Duration) *Sweeper {
	return &Sweeper{
		svc:       svc,
		interval:  interval,
		lookahead: lookahead,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the background sweep loop and performs one immediate run.
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	// Recreate stop channel for each start cycle so the sweeper can be restarted safely.
	s.stopCh = make(chan struct{})
	s.running = true
	log.Infof("[Sweeper] Starting expiration sweeper (interval %s, lookahead %s)", s.interval, s.lookahead)

	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go s.loop()
}

// Stop halts the background loop and waits for an in-flight run to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	log.Info("[Sweeper] Stopping expiration sweeper...")
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
	s.wg.Wait()
	s.running = false
	log.Info("[Sweeper] Stopped")
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	// Run once at startup before the first tick.
	s.runGuarded()

	for {
		select {
		case <-s.ticker.C:
			s.runGuarded()
		case <-s.stopCh:
			return
		}
	}
}

// runGuarded wraps RunOnce in the single-flight lock. Sweeps are idempotent,
// so a skipped tick costs nothing but redundant work avoided.
func (s *Sweeper) runGuarded() {
	acquired, err := s.svc.locker.Acquire(sweepLockKey, sweepLockTTLSeconds)
	if err != nil {
		log.Warnf("[Sweeper] could not acquire sweep lock: %v", err)
		return
	}
	if !acquired {
		log.Info("[Sweeper] previous sweep still running, skipping tick")
		return
	}
	defer func() {
		if err := s.svc.locker.Release(sweepLockKey); err != nil {
			log.Warnf("[Sweeper] failed to release sweep lock: %v", err)
		}
	}()

	if err := s.RunOnce(); err != nil {
		log.Errorf("[Sweeper] sweep failed: %v", err)
	}
}

// RunOnce executes both sweep passes against a snapshot of the ledger.
func (s *Sweeper) RunOnce() error {
	now := s.svc.now()

	if err := s.remindExpiring(now); err != nil {
		return fmt.Errorf("reminder pass: %w", err)
	}
	if err := s.expireStale(now); err != nil {
		return fmt.Errorf("expiration pass: %w", err)
	}
	return nil
}

// remindExpiring notifies auto-renewing subscribers whose subscription ends
// within the lookahead window. A dedup key per subscription and day keeps a
// sweep-happy deployment from re-notifying on every tick.
func (s *Sweeper) remindExpiring(now time.Time) error {
	subs, err := s.svc.repo.ListExpiringSoon(now, s.lookahead)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		dedupKey := fmt.Sprintf("billing:reminder:%d:%s", sub.ID, now.Format("2006-01-02"))
		fresh, err := s.svc.locker.Acquire(dedupKey, reminderDedupTTLSeconds)
		if err != nil {
			// Dedup is best-effort; fall back to the notify-every-sweep behavior.
			fresh = true
		}
		if !fresh {
			continue
		}

		days := int(sub.EndDate.Sub(now).Hours()/24) + 1
		s.svc.notifyBestEffort(sub.UserID, models.NotificationTypeRenewal,
			fmt.Sprintf("Your subscription expires in %d day(s). It will renew automatically.", days), sub.ID)
	}
	return nil
}

// expireStale flips active rows past their end date to expired. The flip is
// a compare-and-set, so re-running over the same snapshot is harmless.
func (s *Sweeper) expireStale(now time.Time) error {
	subs, err := s.svc.repo.ListExpiredActive(now)
	if err != nil {
		return err
	}

	expired := 0
	for _, sub := range subs {
		flipped, err := s.svc.repo.MarkSubscriptionExpired(sub.ID)
		if err != nil {
			return err
		}
		if !flipped {
			continue
		}
		expired++
		s.svc.trackBestEffort(EventSubscriptionExpired, sub.UserID)
	}

	if expired > 0 {
		log.Infof("[Sweeper] expired %d stale subscription(s)", expired)
	}
	return nil
}

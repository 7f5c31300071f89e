package billing

import (
	"fmt"
	"time"

	"github.com/eldarmv/listora/app/models"
	"github.com/eldarmv/listora/internal/pkg/cache"
	"gorm.io/gorm"
)

// Analytics counter keys kept in Redis: cheap increments, aggregated
// out-of-band.
const (
	analyticsKeyPrefix = "billing:events:"

	EventSubscriptionActivated = "subscription_activated"
	EventSubscriptionCancelled = "subscription_cancelled"
	EventSubscriptionExpired   = "subscription_expired"
	EventPaymentFailedRecorded = "payment_failed"
	EventListingFeatured       = "listing_featured"
	EventListingBoosted        = "listing_boosted"
)

// dbNotificationPort writes notification rows; the default NotificationPort.
type dbNotificationPort struct {
	db *gorm.DB
}

// NewDBNotificationPort creates a NotificationPort persisting to the
// notifications table.
func NewDBNotificationPort(db *gorm.DB) NotificationPort {
	return &dbNotificationPort{db: db}
}

func (p *dbNotificationPort) Notify(userID uint, notificationType, content string, referenceID uint) error {
	return models.CreateNotification(p.db, userID, notificationType, content, referenceID)
}

// redisAnalyticsPort counts events in Redis; the default AnalyticsPort.
type redisAnalyticsPort struct{}

// NewRedisAnalyticsPort creates an AnalyticsPort backed by Redis counters.
func NewRedisAnalyticsPort() AnalyticsPort {
	return &redisAnalyticsPort{}
}

func (p *redisAnalyticsPort) Track(event string, userID uint) error {
	_ = userID // per-user drill-down is not aggregated yet
	return cache.Increment(analyticsKeyPrefix + event)
}

// redisLocker implements Locker on the shared cache client.
type redisLocker struct{}

// NewRedisLocker creates a Locker backed by Redis SETNX keys.
func NewRedisLocker() Locker {
	return &redisLocker{}
}

func (l *redisLocker) Acquire(key string, ttlSeconds int) (bool, error) {
	return cache.AcquireLock(key, time.Duration(ttlSeconds)*time.Second)
}

func (l *redisLocker) Release(key string) error {
	return cache.ReleaseLock(key)
}

// activationLockKey serializes subscription replacement per (user, role).
func activationLockKey(userID uint, role string) string {
	return fmt.Sprintf("billing:lock:activate:%d:%s", userID, role)
}

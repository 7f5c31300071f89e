package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	live := &Subscription{Status: SubscriptionStatusActive, EndDate: now.Add(time.Hour)}
	assert.True(t, live.IsActive(now))
	assert.False(t, live.IsStale(now))

	// Exactly at the end date the subscription is over.
	atEnd := &Subscription{Status: SubscriptionStatusActive, EndDate: now}
	assert.False(t, atEnd.IsActive(now))
	assert.True(t, atEnd.IsStale(now))

	past := &Subscription{Status: SubscriptionStatusActive, EndDate: now.Add(-time.Hour)}
	assert.False(t, past.IsActive(now))
	assert.True(t, past.IsStale(now))

	cancelled := &Subscription{Status: SubscriptionStatusCancelled, EndDate: now.Add(time.Hour)}
	assert.False(t, cancelled.IsActive(now))
	assert.False(t, cancelled.IsStale(now), "terminal rows are never stale")

	expired := &Subscription{Status: SubscriptionStatusExpired, EndDate: now.Add(-time.Hour)}
	assert.False(t, expired.IsActive(now))
	assert.False(t, expired.IsStale(now))
}

func TestFeaturedListingIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	live := &FeaturedListing{EndDate: now.Add(time.Minute)}
	assert.False(t, live.IsExpired(now))

	atEnd := &FeaturedListing{EndDate: now}
	assert.True(t, atEnd.IsExpired(now))
}

func TestIsValidItemType(t *testing.T) {
	assert.True(t, IsValidItemType(ItemTypeProperty))
	assert.True(t, IsValidItemType(ItemTypeProduct))
	assert.False(t, IsValidItemType("service"))
	assert.False(t, IsValidItemType(""))
}

func TestPriorityScoreOrdering(t *testing.T) {
	assert.Greater(t, BoostedPriorityScore, FeaturedPriorityScore)
}

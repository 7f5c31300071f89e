package models

import "time"

const (
	ItemTypeProperty = "property"
	ItemTypeProduct  = "product"

	// Priority scores for placement ordering; boost always outranks plain featuring.
	FeaturedPriorityScore = 10
	BoostedPriorityScore  = 100
)

// FeaturedListing is a time-bounded promotional placement for one item.
// At most one record per (item_type, item_id) is live at a time; boosting an
// already-featured item upgrades the existing row instead of inserting a
// duplicate. Expiry is read-time filtering on end_date, no hard delete.
type FeaturedListing struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ItemType      string    `gorm:"type:varchar(20);not null;index:idx_featured_listings_item,priority:1" json:"item_type"`
	ItemID        uint      `gorm:"not null;index:idx_featured_listings_item,priority:2" json:"item_id"`
	OwnerID       uint      `gorm:"not null;index" json:"owner_id"`
	StartDate     time.Time `gorm:"not null" json:"start_date"`
	EndDate       time.Time `gorm:"not null;index" json:"end_date"`
	PriorityScore int       `gorm:"not null;default:0" json:"priority_score"`
	IsBoosted     bool      `gorm:"default:false" json:"is_boosted"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsExpired reports whether the placement window already ended
func (f *FeaturedListing) IsExpired(now time.Time) bool {
	return !now.Before(f.EndDate)
}

// IsValidItemType reports whether itemType names a promotable item kind
func IsValidItemType(itemType string) bool {
	return itemType == ItemTypeProperty || itemType == ItemTypeProduct
}

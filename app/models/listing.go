package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ListingStatusPublished = "published"
	ListingStatusDraft     = "draft"
	ListingStatusRemoved   = "removed"
)

// Listing is the minimal view of a marketplace item this core needs:
// existence, ownership and item type. Full listing CRUD lives outside the
// billing engine.
type Listing struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   uint           `gorm:"not null;index" json:"owner_id"`
	ItemType  string         `gorm:"type:varchar(20);not null;index" json:"item_type"`
	Title     string         `gorm:"type:varchar(200);not null" json:"title"`
	Status    string         `gorm:"type:varchar(20);not null;default:'published'" json:"status"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPublished reports whether the listing is visible and promotable
func (l *Listing) IsPublished() bool {
	return l.Status == ListingStatusPublished
}

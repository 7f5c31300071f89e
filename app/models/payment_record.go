package models

import "time"

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
)

// PaymentRecord is the append-mostly ledger row for one payment attempt.
// IntentID is issued by the external processor and identifies at most one
// record; status only ever moves pending -> succeeded|failed|canceled.
type PaymentRecord struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	PlanID        uint       `gorm:"not null;index" json:"plan_id"`
	Role          string     `gorm:"type:varchar(20);not null" json:"role"`
	IntentID      string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"intent_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Metadata      string     `gorm:"type:text" json:"metadata"`
	FailureReason string     `gorm:"type:text" json:"failure_reason"`
	ProcessedAt   *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the record already reached a final status
func (p *PaymentRecord) IsTerminal() bool {
	return p.Status != PaymentStatusPending
}

package models

import "time"

type PaymentStatus string

// A payment starts in pending and moves to exactly one terminal state.
// Once succeeded or failed it is never written again.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment tracks one provider checkout session for a help request.
// (provider, provider_session_id) is unique: the reconciler keys its
// conditional status update on it.
type Payment struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	RequestID *uint        `json:"request_id" gorm:"index"`
	Request   *HelpRequest `json:"-" gorm:"foreignKey:RequestID;constraint:OnDelete:SET NULL"`
	UserID    *uint        `json:"user_id"`
	User      *User        `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`

	Provider          string `json:"provider" gorm:"size:32;index:idx_payments_provider_session,unique,priority:1"`
	ProviderSessionID string `json:"provider_session_id" gorm:"size:255;index:idx_payments_provider_session,unique,priority:2"`

	AmountMinorUnits int64         `json:"amount_minor_units" gorm:"not null"`
	Currency         string        `json:"currency" gorm:"size:3;default:EUR"`
	Status           PaymentStatus `json:"status" gorm:"size:20;default:pending"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

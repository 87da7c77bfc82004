package models

import "time"

// Help request lifecycle states. Status is only changed through the
// admin update endpoint.
const (
	RequestOpen       = "open"
	RequestInProgress = "in_progress"
	RequestClosed     = "closed"
	RequestCancelled  = "cancelled"
)

type HelpRequest struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	OwnerID      *uint    `json:"user_id"`
	Owner        *User    `json:"-" gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL"`
	Title        string   `json:"title" gorm:"not null"`
	Description  string   `json:"description"`
	Status       string   `json:"status" gorm:"size:20;default:open"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Address      string   `json:"address"`
	ContactPhone string   `json:"contact_phone"`

	Attachments []Attachment `json:"attachments,omitempty" gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

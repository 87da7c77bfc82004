package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a write-side record for events a user should see later
// (currently: their payment reconciled to succeeded).
type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index"`
	User      *User          `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Type      string         `json:"type" gorm:"size:50"`
	Payload   datatypes.JSON `json:"payload" gorm:"type:jsonb"`
	Read      bool           `json:"read" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
}

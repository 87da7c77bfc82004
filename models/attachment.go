package models

import "time"

type Attachment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"request_id" gorm:"index"`
	URL        string    `json:"url" gorm:"not null"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at" gorm:"autoCreateTime"`
}

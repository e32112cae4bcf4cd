package models

import (
	"time"
)

// XPLog records one experience grant.
type XPLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index;size:128" json:"user_id"`
	Amount    int       `gorm:"not null" json:"amount"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

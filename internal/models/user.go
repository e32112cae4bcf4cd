package models

import (
	"time"
)

// User is the profile record for one authenticated identity.
// ID is the identity provider subject, so it is never generated locally.
type User struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"index" json:"email"`
	Avatar    string    `json:"avatar"`
	Level     int       `gorm:"default:1;not null" json:"level"`
	XP        int       `gorm:"default:0;not null" json:"xp"` // only ever incremented
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import (
	"time"
)

// Comment belongs to exactly one post. There is deliberately no foreign
// key: deleting a post leaves its comments in place.
type Comment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PostID     string    `gorm:"not null;index;size:36" json:"post_id"`
	UserID     string    `gorm:"not null;index;size:128" json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}

package models

import (
	"time"
)

// PostLike is one member of a post's liked-by set.
// The composite primary key makes add idempotent.
type PostLike struct {
	PostID    string    `gorm:"primaryKey;size:36" json:"post_id"`
	UserID    string    `gorm:"primaryKey;size:128" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

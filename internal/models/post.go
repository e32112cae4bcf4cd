package models

import (
	"time"
)

// Post is a community feed entry. Author name and avatar are copied at
// creation time, the same way the feed has always displayed them.
type Post struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"not null;index;size:128" json:"user_id"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	GoalTitle  string    `json:"goal_title"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
	Reactions  int       `gorm:"default:0;not null" json:"reactions"` // == len(LikedBy)
	IsAI       bool      `gorm:"default:false" json:"is_ai"`

	Likes []PostLike `gorm:"foreignKey:PostID" json:"-"`

	// 非数据库字段，用于查询时填充
	LikedBy     []string `gorm:"-" json:"liked_by"`
	ContentHTML string   `gorm:"-" json:"content_html,omitempty"`
	Age         string   `gorm:"-" json:"age,omitempty"`
}

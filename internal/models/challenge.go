package models

import (
	"time"
)

const (
	ChallengeTypeGlobal    = "Global Event"
	ChallengeTypeCommunity = "Community Challenge"
	ChallengeTypeDuel      = "1v1 Battle"
)

type Challenge struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DaysLeft    int       `gorm:"not null" json:"days_left"` // static, set at creation
	Type        string    `gorm:"size:40" json:"type"`
	Color       string    `json:"color"`
	CreatorID   string    `gorm:"index;size:128" json:"creator_id,omitempty"`
	StartDate   time.Time `json:"start_date"`
	CreatedAt   time.Time `json:"created_at"`

	Members     []ChallengeParticipant `gorm:"foreignKey:ChallengeID" json:"-"`
	Completions []ChallengeCompletion  `gorm:"foreignKey:ChallengeID" json:"-"`

	Participants []string `gorm:"-" json:"participants"`
	CompletedBy  []string `gorm:"-" json:"completed_by"`
}

// ChallengeParticipant and ChallengeCompletion are set members; the
// completed-by set is not constrained to be a subset of participants.
type ChallengeParticipant struct {
	ChallengeID string    `gorm:"primaryKey;size:36" json:"challenge_id"`
	UserID      string    `gorm:"primaryKey;size:128" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChallengeCompletion struct {
	ChallengeID string    `gorm:"primaryKey;size:36" json:"challenge_id"`
	UserID      string    `gorm:"primaryKey;size:128" json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

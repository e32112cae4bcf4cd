package models

import (
	"time"
)

type GoalType string

const (
	GoalTypeDaily     GoalType = "Daily Habit"
	GoalTypeProject   GoalType = "Long-term Project"
	GoalTypeChallenge GoalType = "Time-bound Challenge"
)

type GoalCategory string

const (
	CategoryFitness     GoalCategory = "Fitness"
	CategoryLearning    GoalCategory = "Learning"
	CategoryMindfulness GoalCategory = "Mindfulness"
	CategoryCareer      GoalCategory = "Career"
	CategoryCreative    GoalCategory = "Creative"
	CategoryOther       GoalCategory = "Other"
)

var GoalTypes = []GoalType{GoalTypeDaily, GoalTypeProject, GoalTypeChallenge}

var GoalCategories = []GoalCategory{
	CategoryFitness, CategoryLearning, CategoryMindfulness,
	CategoryCareer, CategoryCreative, CategoryOther,
}

func (t GoalType) Valid() bool {
	for _, v := range GoalTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (c GoalCategory) Valid() bool {
	for _, v := range GoalCategories {
		if v == c {
			return true
		}
	}
	return false
}

type Goal struct {
	ID             string       `gorm:"primaryKey;size:36" json:"id"`
	UserID         string       `gorm:"not null;index;size:128" json:"user_id"`
	Title          string       `gorm:"not null;index" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Why            string       `gorm:"type:text" json:"why"` // emotional anchor
	Type           GoalType     `gorm:"size:40;not null" json:"type"`
	Category       GoalCategory `gorm:"size:40;not null;index" json:"category"`
	StartDate      time.Time    `json:"start_date"`
	StreakDays     int          `gorm:"default:0;not null" json:"streak_days"`
	LongestStreak  int          `gorm:"default:0;not null" json:"longest_streak"`
	IsFrozen       bool         `gorm:"default:false" json:"is_frozen"`
	CommunityID    string       `json:"community_id"`
	CommunityName  string       `json:"community_name,omitempty"`
	CompletedToday bool         `gorm:"default:false;index" json:"completed_today"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

package services

import (
	"fmt"
	"strings"
	"time"

	"streaksync/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// placeholderCommunityID is stored until a goal is attached to a real community.
const placeholderCommunityID = "temp"

type GoalService struct {
	db  *gorm.DB
	pub Publisher
	now func() time.Time
}

func NewGoalService(db *gorm.DB, pub Publisher) *GoalService {
	return &GoalService{db: db, pub: orNop(pub), now: time.Now}
}

type GoalInput struct {
	Title         string              `json:"title" binding:"required"`
	Description   string              `json:"description"`
	Why           string              `json:"why"`
	Type          models.GoalType     `json:"type" binding:"required"`
	Category      models.GoalCategory `json:"category" binding:"required"`
	CommunityID   string              `json:"community_id"`
	CommunityName string              `json:"community_name"`
}

// GoalPatch carries the user-editable fields; nil means unchanged.
// Streak counters are only moved by CheckIn.
type GoalPatch struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Why           *string              `json:"why"`
	Type          *models.GoalType     `json:"type"`
	Category      *models.GoalCategory `json:"category"`
	IsFrozen      *bool                `json:"is_frozen"`
	CommunityID   *string              `json:"community_id"`
	CommunityName *string              `json:"community_name"`
}

func validateGoal(title string, t models.GoalType, c models.GoalCategory) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: unknown goal type %q", ErrInvalidInput, t)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, c)
	}
	return nil
}

func (s *GoalService) Create(userID string, in GoalInput) (*models.Goal, error) {
	if err := validateGoal(in.Title, in.Type, in.Category); err != nil {
		return nil, err
	}
	communityID := strings.TrimSpace(in.CommunityID)
	if communityID == "" {
		communityID = placeholderCommunityID
	}

	goal := models.Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		Why:           in.Why,
		Type:          in.Type,
		Category:      in.Category,
		StartDate:     s.now(),
		CommunityID:   communityID,
		CommunityName: in.CommunityName,
	}
	if err := s.db.Create(&goal).Error; err != nil {
		return nil, err
	}
	s.publishGoals(userID)
	return &goal, nil
}

// List 返回用户的全部目标，按创建时间排序
func (s *GoalService) List(userID string) ([]models.Goal, error) {
	return listGoals(s.db, userID)
}

func listGoals(db *gorm.DB, userID string) ([]models.Goal, error) {
	goals := []models.Goal{}
	err := db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&goals).Error
	return goals, err
}

// Get only returns goals owned by userID.
func (s *GoalService) Get(userID, id string) (*models.Goal, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
		return nil, missing(err, "goal")
	}
	return &goal, nil
}

func (s *GoalService) Update(userID, id string, patch GoalPatch) (*models.Goal, error) {
	var goal models.Goal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&goal).Error; err != nil {
			return missing(err, "goal")
		}

		updates := map[string]any{}
		if patch.Title != nil {
			goal.Title = strings.TrimSpace(*patch.Title)
			updates["title"] = goal.Title
		}
		if patch.Description != nil {
			goal.Description = *patch.Description
			updates["description"] = goal.Description
		}
		if patch.Why != nil {
			goal.Why = *patch.Why
			updates["why"] = goal.Why
		}
		if patch.Type != nil {
			goal.Type = *patch.Type
			updates["type"] = goal.Type
		}
		if patch.Category != nil {
			goal.Category = *patch.Category
			updates["category"] = goal.Category
		}
		if patch.IsFrozen != nil {
			goal.IsFrozen = *patch.IsFrozen
			updates["is_frozen"] = goal.IsFrozen
		}
		if patch.CommunityID != nil {
			goal.CommunityID = strings.TrimSpace(*patch.CommunityID)
			if goal.CommunityID == "" {
				goal.CommunityID = placeholderCommunityID
			}
			updates["community_id"] = goal.CommunityID
		}
		if patch.CommunityName != nil {
			goal.CommunityName = *patch.CommunityName
			updates["community_name"] = goal.CommunityName
		}
		if len(updates) == 0 {
			return nil
		}
		if err := validateGoal(goal.Title, goal.Type, goal.Category); err != nil {
			return err
		}
		return tx.Model(&models.Goal{}).Where("id = ?", goal.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	s.publishGoals(userID)
	return &goal, nil
}

// CheckIn marks the goal done for today, extends its streak and grants
// XPCheckIn. checked is false when the goal was already done today, in
// which case nothing changes.
func (s *GoalService) CheckIn(userID, id string) (goal *models.Goal, checked bool, err error) {
	goal = &models.Goal{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(goal).Error; err != nil {
			return missing(err, "goal")
		}
		if goal.CompletedToday {
			return nil
		}

		streak := goal.StreakDays + 1
		longest := max(goal.LongestStreak, streak)
		// completed_today 作为守卫，并发的重复签到只有一个会生效
		res := tx.Model(&models.Goal{}).
			Where("id = ? AND completed_today = ?", goal.ID, false).
			Updates(map[string]any{
				"completed_today": true,
				"streak_days":     streak,
				"longest_streak":  longest,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			goal.CompletedToday = true
			return nil
		}

		goal.CompletedToday = true
		goal.StreakDays = streak
		goal.LongestStreak = longest
		checked = true
		return addExperience(tx, userID, XPCheckIn, ActionCheckIn)
	})
	if err != nil {
		return nil, false, err
	}
	if checked {
		s.publishGoals(userID)
		publishProfile(s.db, s.pub, userID)
	}
	return goal, checked, nil
}

// Delete removes the goal; challenges and posts that mention it are kept.
func (s *GoalService) Delete(userID, id string) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Goal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing(gorm.ErrRecordNotFound, "goal")
	}
	s.publishGoals(userID)
	return nil
}

func (s *GoalService) publishGoals(userID string) {
	goals, err := listGoals(s.db, userID)
	if err != nil {
		logSnapshotErr(GoalsTopic(userID), err)
		return
	}
	s.pub.Publish(GoalsTopic(userID), goals)
}

package services

import (
	"fmt"
	"strings"
	"time"

	"streaksync/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Challenge list filters.
const (
	FilterAll    = "all"
	FilterActive = "active"
	FilterPast   = "past"
)

const (
	defaultChallengeDays  = 7
	defaultChallengeColor = "from-fuchsia-500 to-pink-500"
	duelDays              = 7
	duelColor             = "from-rose-500 to-pink-600"
	sharedGoalDays        = 30
	sharedGoalColor       = "from-orange-500 to-amber-500"
)

type ChallengeService struct {
	db  *gorm.DB
	pub Publisher
	now func() time.Time
}

func NewChallengeService(db *gorm.DB, pub Publisher) *ChallengeService {
	return &ChallengeService{db: db, pub: orNop(pub), now: time.Now}
}

type ChallengeInput struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	DaysLeft     int      `json:"days_left"`
	Type         string   `json:"type"`
	Color        string   `json:"color"`
	Participants []string `json:"participants"`
}

// Create stores a challenge owned by creatorID. The creator is not joined
// automatically; list them in Participants to do so.
func (s *ChallengeService) Create(creatorID string, in ChallengeInput) (*models.Challenge, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.DaysLeft <= 0 {
		in.DaysLeft = defaultChallengeDays
	}
	if in.Type == "" {
		in.Type = models.ChallengeTypeCommunity
	}
	if in.Color == "" {
		in.Color = defaultChallengeColor
	}

	challenge := models.Challenge{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DaysLeft:    in.DaysLeft,
		Type:        in.Type,
		Color:       in.Color,
		CreatorID:   creatorID,
		StartDate:   s.now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&challenge).Error; err != nil {
			return err
		}
		seen := map[string]bool{}
		for _, uid := range in.Participants {
			if uid == "" || seen[uid] {
				continue
			}
			seen[uid] = true
			if err := s.addMember(tx, challenge.ID, uid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.changed(challenge.ID)
}

// Duel opens a one-on-one battle between creator and the target user.
// category only labels the description.
func (s *ChallengeService) Duel(creator *models.User, targetID, category string) (*models.Challenge, error) {
	if targetID == "" || targetID == creator.ID {
		return nil, fmt.Errorf("%w: pick another user to duel", ErrInvalidInput)
	}
	var target models.User
	if err := s.db.First(&target, "id = ?", targetID).Error; err != nil {
		return nil, missing(err, "user")
	}
	if strings.TrimSpace(category) == "" {
		category = "All"
	}
	return s.Create(creator.ID, ChallengeInput{
		Title:        fmt.Sprintf("%s vs %s", creator.Name, target.Name),
		Description:  fmt.Sprintf("1v1 Streak Battle in %s", category),
		DaysLeft:     duelDays,
		Type:         models.ChallengeTypeDuel,
		Color:        duelColor,
		Participants: []string{creator.ID, target.ID},
	})
}

// ShareGoal turns one of the creator's goals into a community challenge.
func (s *ChallengeService) ShareGoal(creatorID, goalID string) (*models.Challenge, error) {
	var goal models.Goal
	if err := s.db.Where("id = ? AND user_id = ?", goalID, creatorID).First(&goal).Error; err != nil {
		return nil, missing(err, "goal")
	}
	return s.Create(creatorID, ChallengeInput{
		Title:        "Challenge: " + goal.Title,
		Description:  "Join me in this challenge! " + goal.Description,
		DaysLeft:     sharedGoalDays,
		Type:         models.ChallengeTypeCommunity,
		Color:        sharedGoalColor,
		Participants: []string{creatorID},
	})
}

func (s *ChallengeService) Join(challengeID, userID string) (*models.Challenge, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, challengeID); err != nil {
			return err
		}
		return s.addMember(tx, challengeID, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.changed(challengeID)
}

// Leave removes the user from both participants and completed-by.
func (s *ChallengeService) Leave(challengeID, userID string) (*models.Challenge, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, challengeID); err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			Delete(&models.ChallengeParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			Delete(&models.ChallengeCompletion{}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.changed(challengeID)
}

// Complete records the user as finished and grants XPChallengeComplete the
// first time. Participation is not required.
func (s *ChallengeService) Complete(challengeID, userID string) (*models.Challenge, bool, error) {
	granted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, challengeID); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ChallengeCompletion{
			ChallengeID: challengeID,
			UserID:      userID,
			CreatedAt:   s.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		granted = true
		return addExperience(tx, userID, XPChallengeComplete, ActionChallengeComplete)
	})
	if err != nil {
		return nil, false, err
	}
	if granted {
		publishProfile(s.db, s.pub, userID)
	}
	c, err := s.changed(challengeID)
	return c, granted, err
}

// Delete is limited to the creator, so seeded challenges cannot be deleted.
func (s *ChallengeService) Delete(challengeID, callerID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var c models.Challenge
		if err := tx.Select("id", "creator_id").First(&c, "id = ?", challengeID).Error; err != nil {
			return missing(err, "challenge")
		}
		if c.CreatorID == "" || c.CreatorID != callerID {
			return fmt.Errorf("%w: only the creator can delete a challenge", ErrForbidden)
		}
		if err := tx.Where("challenge_id = ?", challengeID).Delete(&models.ChallengeParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", challengeID).Delete(&models.ChallengeCompletion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Challenge{}, "id = ?", challengeID).Error
	})
	if err != nil {
		return err
	}
	s.publishList()
	return nil
}

func (s *ChallengeService) Get(challengeID string) (*models.Challenge, error) {
	var c models.Challenge
	err := s.db.Preload("Members", orderMembers).
		Preload("Completions", orderMembers).
		First(&c, "id = ?", challengeID).Error
	if err != nil {
		return nil, missing(err, "challenge")
	}
	fillMembers(&c)
	return &c, nil
}

// List 按筛选条件返回挑战：all / active / past
func (s *ChallengeService) List(filter string) ([]models.Challenge, error) {
	q := s.db.Preload("Members", orderMembers).Preload("Completions", orderMembers)
	switch filter {
	case "", FilterAll:
	case FilterActive:
		q = q.Where("days_left > ?", 0)
	case FilterPast:
		q = q.Where("days_left <= ?", 0)
	default:
		return nil, fmt.Errorf("%w: unknown filter %q", ErrInvalidInput, filter)
	}

	challenges := []models.Challenge{}
	if err := q.Order("created_at ASC, id ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}
	for i := range challenges {
		fillMembers(&challenges[i])
	}
	return challenges, nil
}

func (s *ChallengeService) exists(tx *gorm.DB, challengeID string) error {
	var c models.Challenge
	if err := tx.Select("id").First(&c, "id = ?", challengeID).Error; err != nil {
		return missing(err, "challenge")
	}
	return nil
}

func (s *ChallengeService) addMember(tx *gorm.DB, challengeID, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      userID,
		CreatedAt:   s.now(),
	}).Error
}

// changed reloads the challenge and pushes the list snapshot.
func (s *ChallengeService) changed(challengeID string) (*models.Challenge, error) {
	c, err := s.Get(challengeID)
	if err != nil {
		return nil, err
	}
	s.publishList()
	return c, nil
}

func (s *ChallengeService) publishList() {
	list, err := s.List(FilterAll)
	if err != nil {
		logSnapshotErr(TopicChallenges, err)
		return
	}
	s.pub.Publish(TopicChallenges, list)
}

func orderMembers(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, user_id ASC")
}

func fillMembers(c *models.Challenge) {
	c.Participants = make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		c.Participants = append(c.Participants, m.UserID)
	}
	c.CompletedBy = make([]string, 0, len(c.Completions))
	for _, m := range c.Completions {
		c.CompletedBy = append(c.CompletedBy, m.UserID)
	}
}

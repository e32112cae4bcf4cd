package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"streaksync/internal/models"
	"streaksync/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profileBatchSize bounds the id list of one profile lookup.
const profileBatchSize = 10

type ProfileService struct {
	db  *gorm.DB
	pub Publisher
}

func NewProfileService(db *gorm.DB, pub Publisher) *ProfileService {
	return &ProfileService{db: db, pub: orNop(pub)}
}

// Identity is what the identity provider tells us about a signed-in user.
type Identity struct {
	ID     string
	Name   string
	Email  string
	Avatar string
}

// EnsureProfile creates the profile on first sign-in and leaves an
// existing one untouched.
func (s *ProfileService) EnsureProfile(id Identity) (*models.User, error) {
	if strings.TrimSpace(id.ID) == "" {
		return nil, fmt.Errorf("%w: identity subject is empty", ErrInvalidInput)
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = "Anonymous"
	}

	user := models.User{
		ID:     id.ID,
		Name:   name,
		Email:  id.Email,
		Avatar: id.Avatar,
		Level:  1,
		XP:     0,
	}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&user)
	if res.Error != nil {
		return nil, res.Error
	}

	profile, err := s.Profile(id.ID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		s.pub.Publish(ProfileTopic(profile.ID), profile)
	}
	return profile, nil
}

func (s *ProfileService) Profile(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, missing(err, "user")
	}
	return &user, nil
}

// AddExperience grants amount experience and records it in the ledger.
func (s *ProfileService) AddExperience(userID string, amount int, action string) (*models.User, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: experience never decreases", ErrInvalidInput)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return addExperience(tx, userID, amount, action)
	})
	if err != nil {
		return nil, err
	}
	user, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ProfileTopic(userID), user)
	return user, nil
}

// XPHistory 最近的经验明细，新的在前
func (s *ProfileService) XPHistory(userID string, limit int) ([]models.XPLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	logs := []models.XPLog{}
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// UsersByGoalCategory returns the owners of goals in category, excluding the caller.
func (s *ProfileService) UsersByGoalCategory(category models.GoalCategory, excludeID string) ([]models.User, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	var ids []string
	err := s.db.Model(&models.Goal{}).
		Where("category = ? AND user_id <> ?", category, excludeID).
		Distinct().
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return s.usersByIDs(ids)
}

// SearchByGoalTitle is a case-sensitive prefix match on goal titles.
func (s *ProfileService) SearchByGoalTitle(prefix, excludeID string) ([]models.User, error) {
	if strings.TrimSpace(prefix) == "" {
		return []models.User{}, nil
	}
	var ids []string
	err := s.db.Model(&models.Goal{}).
		Where("title >= ? AND title <= ? AND user_id <> ?", prefix, prefix+"\uf8ff", excludeID).
		Distinct().
		Order("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return s.usersByIDs(ids)
}

// usersByIDs loads profiles in batches; ids without a profile are skipped.
func (s *ProfileService) usersByIDs(ids []string) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	for start := 0; start < len(ids); start += profileBatchSize {
		end := min(start+profileBatchSize, len(ids))
		var batch []models.User
		if err := s.db.Where("id IN ?", ids[start:end]).Order("id").Find(&batch).Error; err != nil {
			return nil, err
		}
		users = append(users, batch...)
	}
	return users, nil
}

type ProfileStats struct {
	TotalCheckIns int     `json:"total_check_ins"`
	LongestStreak int     `json:"longest_streak"`
	PendingToday  int     `json:"pending_today"`
	XP            int     `json:"xp"`
	Level         int     `json:"level"`
	NextLevelXP   int     `json:"next_level_xp"`
	LevelProgress float64 `json:"level_progress"`
	GoalCount     int     `json:"goal_count"`
	MemberSince   string  `json:"member_since"`
}

// Stats summarises the profile page numbers.
func (s *ProfileService) Stats(userID string) (*ProfileStats, error) {
	user, err := s.Profile(userID)
	if err != nil {
		return nil, err
	}
	goals, err := listGoals(s.db, userID)
	if err != nil {
		return nil, err
	}

	stats := &ProfileStats{
		XP:            user.XP,
		Level:         user.Level,
		NextLevelXP:   utils.XPForNextLevel,
		LevelProgress: utils.LevelProgress(user.XP),
		GoalCount:     len(goals),
		MemberSince:   user.CreatedAt.Format(time.DateOnly),
	}
	for _, g := range goals {
		stats.TotalCheckIns += g.StreakDays
		stats.LongestStreak = max(stats.LongestStreak, g.LongestStreak)
		if !g.CompletedToday {
			stats.PendingToday++
		}
	}
	return stats, nil
}

type ProgressReport struct {
	TotalGoals     int                         `json:"total_goals"`
	CompletedToday int                         `json:"completed_today"`
	PendingToday   int                         `json:"pending_today"`
	OverallScore   int                         `json:"overall_score"`
	TotalCheckIns  int                         `json:"total_check_ins"`
	CategoryCounts map[models.GoalCategory]int `json:"category_counts"`
}

// Report is today's completion score across all of the user's goals.
func (s *ProfileService) Report(userID string) (*ProgressReport, error) {
	goals, err := listGoals(s.db, userID)
	if err != nil {
		return nil, err
	}
	report := &ProgressReport{
		TotalGoals:     len(goals),
		CategoryCounts: map[models.GoalCategory]int{},
	}
	for _, g := range goals {
		report.TotalCheckIns += g.StreakDays
		report.CategoryCounts[g.Category]++
		if g.CompletedToday {
			report.CompletedToday++
		}
	}
	report.PendingToday = report.TotalGoals - report.CompletedToday
	if report.TotalGoals > 0 {
		report.OverallScore = int(math.Round(float64(report.CompletedToday) / float64(report.TotalGoals) * 100))
	}
	return report, nil
}

func publishProfile(db *gorm.DB, pub Publisher, userID string) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		logSnapshotErr(ProfileTopic(userID), err)
		return
	}
	pub.Publish(ProfileTopic(userID), &user)
}

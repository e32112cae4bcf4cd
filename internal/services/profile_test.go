package services

import (
	"errors"
	"fmt"
	"testing"

	"streaksync/internal/models"
)

func TestEnsureProfileIsIdempotent(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewProfileService(newTestDB(t), pub)

	u, err := s.EnsureProfile(Identity{ID: "g-1", Name: "", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("EnsureProfile failed: %v", err)
	}
	if u.Name != "Anonymous" || u.Level != 1 || u.XP != 0 {
		t.Errorf("unexpected new profile: %+v", u)
	}
	if _, ok := pub.last(ProfileTopic("g-1")); !ok {
		t.Error("new profile not published")
	}

	s.AddExperience("g-1", 120, ActionCheckIn)
	again, err := s.EnsureProfile(Identity{ID: "g-1", Name: "Renamed"})
	if err != nil {
		t.Fatalf("second EnsureProfile failed: %v", err)
	}
	if again.Name != "Anonymous" || again.XP != 120 {
		t.Errorf("existing profile overwritten: %+v", again)
	}

	if _, err := s.EnsureProfile(Identity{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddExperienceAndHistory(t *testing.T) {
	s := NewProfileService(newTestDB(t), nil)
	createUser(t, s.db, "u1", "Ana")

	if logs, _ := s.XPHistory("u1", 0); logs == nil || len(logs) != 0 {
		t.Errorf("expected empty non-nil history, got %#v", logs)
	}

	for _, amount := range []int{50, 500, 50} {
		if _, err := s.AddExperience("u1", amount, "test"); err != nil {
			t.Fatalf("AddExperience failed: %v", err)
		}
	}
	u, _ := s.Profile("u1")
	if u.XP != 600 {
		t.Errorf("expected 600 xp, got %d", u.XP)
	}

	logs, err := s.XPHistory("u1", 2)
	if err != nil {
		t.Fatalf("XPHistory failed: %v", err)
	}
	if len(logs) != 2 || logs[0].ID < logs[1].ID {
		t.Errorf("expected newest two entries, got %+v", logs)
	}

	if _, err := s.AddExperience("u1", -10, "test"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative amount, got %v", err)
	}
	if _, err := s.AddExperience("nobody", 10, "test"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchByGoalTitle(t *testing.T) {
	s := NewProfileService(newTestDB(t), nil)
	goals := NewGoalService(s.db, nil)
	for _, id := range []string{"me", "a", "b", "c"} {
		createUser(t, s.db, id, id)
	}
	goals.Create("me", GoalInput{Title: "Run 5k", Type: models.GoalTypeDaily, Category: models.CategoryFitness})
	goals.Create("a", GoalInput{Title: "Run 5k", Type: models.GoalTypeDaily, Category: models.CategoryFitness})
	goals.Create("a", GoalInput{Title: "Running club", Type: models.GoalTypeDaily, Category: models.CategoryFitness})
	goals.Create("b", GoalInput{Title: "Rust book", Type: models.GoalTypeDaily, Category: models.CategoryLearning})
	goals.Create("c", GoalInput{Title: "run slowly", Type: models.GoalTypeDaily, Category: models.CategoryFitness})

	users, err := s.SearchByGoalTitle("Run", "me")
	if err != nil {
		t.Fatalf("SearchByGoalTitle failed: %v", err)
	}
	if len(users) != 1 || users[0].ID != "a" {
		t.Errorf("expected only user a, got %+v", users)
	}

	users, _ = s.SearchByGoalTitle("", "me")
	if len(users) != 0 {
		t.Errorf("empty query should match nobody, got %d", len(users))
	}
}

func TestUsersByGoalCategoryBatches(t *testing.T) {
	s := NewProfileService(newTestDB(t), nil)
	goals := NewGoalService(s.db, nil)
	createUser(t, s.db, "me", "Me")
	goals.Create("me", GoalInput{Title: "Yoga", Type: models.GoalTypeDaily, Category: models.CategoryMindfulness})
	for i := 0; i < 23; i++ {
		id := fmt.Sprintf("user-%02d", i)
		createUser(t, s.db, id, id)
		goals.Create(id, GoalInput{Title: "Breathe", Type: models.GoalTypeDaily, Category: models.CategoryMindfulness})
	}
	// 有目标但没有资料的用户被跳过
	goals.Create("ghost", GoalInput{Title: "Breathe", Type: models.GoalTypeDaily, Category: models.CategoryMindfulness})

	users, err := s.UsersByGoalCategory(models.CategoryMindfulness, "me")
	if err != nil {
		t.Fatalf("UsersByGoalCategory failed: %v", err)
	}
	if len(users) != 23 {
		t.Fatalf("expected 23 users, got %d", len(users))
	}
	for _, u := range users {
		if u.ID == "me" {
			t.Error("caller included in results")
		}
	}

	if _, err := s.UsersByGoalCategory("Sports", "me"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatsAndReport(t *testing.T) {
	s := NewProfileService(newTestDB(t), nil)
	goals := NewGoalService(s.db, nil)
	createUser(t, s.db, "u1", "Ana")

	a, _ := goals.Create("u1", GoalInput{Title: "A", Type: models.GoalTypeDaily, Category: models.CategoryFitness})
	b, _ := goals.Create("u1", GoalInput{Title: "B", Type: models.GoalTypeDaily, Category: models.CategoryFitness})
	goals.Create("u1", GoalInput{Title: "C", Type: models.GoalTypeProject, Category: models.CategoryCareer})
	s.db.Model(&models.Goal{}).Where("id = ?", a.ID).Updates(map[string]any{"streak_days": 4, "longest_streak": 9})
	s.db.Model(&models.Goal{}).Where("id = ?", b.ID).Updates(map[string]any{"streak_days": 2, "longest_streak": 2})
	goals.CheckIn("u1", a.ID)

	stats, err := s.Stats("u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCheckIns != 7 || stats.LongestStreak != 9 || stats.PendingToday != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.XP != XPCheckIn || stats.LevelProgress != 2.5 {
		t.Errorf("unexpected xp progress: %+v", stats)
	}

	report, err := s.Report("u1")
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if report.TotalGoals != 3 || report.CompletedToday != 1 || report.PendingToday != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.OverallScore != 33 {
		t.Errorf("expected score 33, got %d", report.OverallScore)
	}
	if report.CategoryCounts[models.CategoryFitness] != 2 {
		t.Errorf("unexpected category counts: %v", report.CategoryCounts)
	}

	empty, _ := s.Report("nobody")
	if empty.OverallScore != 0 || empty.TotalGoals != 0 {
		t.Errorf("expected empty report, got %+v", empty)
	}
}

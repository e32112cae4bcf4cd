package db

import (
	"fmt"
	"log/slog"
	"time"

	"streaksync/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the store, migrates the schema and seeds the global challenges.
func Init(driver, dsn string) (*gorm.DB, error) {
	conn, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	slog.Info("database connection established", "driver", driver)

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	slog.Info("database migration completed")

	if err := SeedChallenges(conn); err != nil {
		slog.Error("failed to seed challenges", "error", err)
	}

	return conn, nil
}

func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "pgx":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// in-memory databases live and die with a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.User{},
		&models.Goal{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.ChallengeCompletion{},
		&models.XPLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedChallenges inserts the global challenges when the collection is empty.
func SeedChallenges(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Challenge{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		slog.Debug("challenges already seeded, skipping")
		return nil
	}

	now := time.Now()
	seeds := []models.Challenge{
		{
			ID:          "c1",
			Title:       "The 30-Day Reset",
			Description: "Build a consistent routine by sticking to one habit for 30 days straight.",
			DaysLeft:    12,
			Type:        models.ChallengeTypeGlobal,
			Color:       "from-rose-500 to-orange-500",
		},
		{
			ID:          "c2",
			Title:       "Mindful Mornings",
			Description: "Complete a mindfulness session before 9 AM every day for a week.",
			DaysLeft:    5,
			Type:        models.ChallengeTypeCommunity,
			Color:       "from-indigo-500 to-cyan-500",
		},
		{
			ID:          "c3",
			Title:       "Tech Detox Weekend",
			Description: "Limit screen time to 1 hour per day this coming weekend.",
			DaysLeft:    2,
			Type:        models.ChallengeTypeCommunity,
			Color:       "from-emerald-500 to-teal-500",
		},
	}

	for _, c := range seeds {
		c.StartDate = now
		if err := conn.Create(&c).Error; err != nil {
			slog.Error("failed to create seed challenge", "title", c.Title, "error", err)
		}
	}
	slog.Info("initial challenges created")
	return nil
}

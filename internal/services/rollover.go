package services

import (
	"context"
	"log/slog"
	"time"

	"streaksync/internal/models"

	"gorm.io/gorm"
)

// Rollover closes the current day: goals not done today lose their streak
// unless frozen, and every goal becomes available for check-in again.
// It returns the number of goals that were reopened.
func (s *GoalService) Rollover() (int64, error) {
	var owners []string
	var reopened int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Goal{}).
			Where("completed_today = ? OR streak_days > ?", true, 0).
			Distinct().
			Pluck("user_id", &owners).Error
		if err != nil {
			return err
		}

		// 1. 未完成且未冻结的目标断签
		err = tx.Model(&models.Goal{}).
			Where("completed_today = ? AND is_frozen = ? AND streak_days > ?", false, false, 0).
			Update("streak_days", 0).Error
		if err != nil {
			return err
		}

		// 2. 重新开放签到
		res := tx.Model(&models.Goal{}).
			Where("completed_today = ?", true).
			Update("completed_today", false)
		reopened = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	for _, uid := range owners {
		s.publishGoals(uid)
	}
	return reopened, nil
}

// nextRollover is the first moment at hour:00 strictly after now.
func nextRollover(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// StartDailyRollover 启动每日换日任务，在 hour 点执行，ctx 取消后退出
func (s *GoalService) StartDailyRollover(ctx context.Context, hour int) {
	go func() {
		for {
			next := nextRollover(s.now(), hour)
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			slog.Info("starting daily rollover")
			n, err := s.Rollover()
			if err != nil {
				slog.Error("daily rollover failed", "error", err)
				continue
			}
			slog.Info("daily rollover completed", "reopened", n)
		}
	}()
}

package services

import (
	"streaksync/internal/models"

	"gorm.io/gorm"
)

// 经验动作常量
const (
	ActionCheckIn           = "goal check-in"
	ActionChallengeComplete = "challenge completed"
)

// 经验值常量
const (
	XPCheckIn           = 50
	XPChallengeComplete = 500
)

// addExperience 在事务内记录经验明细并累加用户经验
func addExperience(tx *gorm.DB, userID string, amount int, action string) error {
	// 1. 创建经验明细记录
	log := models.XPLog{
		UserID: userID,
		Amount: amount,
		Action: action,
	}
	if err := tx.Create(&log).Error; err != nil {
		return err
	}

	// 2. 原子累加
	res := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("xp", gorm.Expr("xp + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missing(gorm.ErrRecordNotFound, "user "+userID)
	}
	return nil
}

package repository

import (
	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository struct {
	DB *gorm.DB
}

func NewStreakRepository(db *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: db}
}

func (r *StreakRepository) WithTx(tx *gorm.DB) *StreakRepository {
	return &StreakRepository{DB: tx}
}

// MarkActive 幂等记录 (user, date) 活跃，返回插入是否生效。
// 未生效说明当日已记过活动，连胜计数器无需再动。
func (r *StreakRepository) MarkActive(userID uint, date string) (bool, error) {
	entry := model.StreakHistory{UserID: userID, ActiveDate: date}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountDistinctActiveSince 窗口内活跃用户数，管理面板用
func (r *StreakRepository) CountDistinctActiveSince(date string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.StreakHistory{}).
		Where("active_date >= ?", date).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

func (r *StreakRepository) CountDistinctActiveOn(date string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.StreakHistory{}).
		Where("active_date = ?", date).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}

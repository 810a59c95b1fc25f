package repository

import (
	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type XPRepository struct {
	DB *gorm.DB
}

func NewXPRepository(db *gorm.DB) *XPRepository {
	return &XPRepository{DB: db}
}

func (r *XPRepository) WithTx(tx *gorm.DB) *XPRepository {
	return &XPRepository{DB: tx}
}

// AppendIfAbsent 以 (user, course, event_type, reference) 为幂等键追加台账行，
// 返回插入是否生效。键已存在即 no-op，调用方不得在未生效时累加计数器。
func (r *XPRepository) AppendIfAbsent(entry *model.XPLogEntry) (bool, error) {
	entry.ReferenceKey = model.ReferenceKeyFor(entry.ReferenceID)
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasEvent 是否存在某类事件的任意台账行（不区分 reference）
func (r *XPRepository) HasEvent(userID uint, courseID, eventType string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.XPLogEntry{}).
		Where("user_id = ? AND course_id = ? AND event_type = ?", userID, courseID, eventType).
		Count(&count).Error
	return count > 0, err
}

// SumForUser 台账聚合，是 total_xp 的对账依据
func (r *XPRepository) SumForUser(userID uint) (int64, error) {
	var sum int64
	err := r.DB.Model(&model.XPLogEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(xp_amount), 0)").
		Scan(&sum).Error
	return sum, err
}

package repository

import (
	"time"

	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
)

type NudgeRepository struct {
	DB *gorm.DB
}

func NewNudgeRepository(db *gorm.DB) *NudgeRepository {
	return &NudgeRepository{DB: db}
}

// SentSince 用户在 since 之后收到过任意类型 nudge，48 小时节流的判据
func (r *NudgeRepository) SentSince(userID uint, since time.Time) (bool, error) {
	var count int64
	err := r.DB.Model(&model.NudgeLogEntry{}).
		Where("user_id = ? AND sent_at > ?", userID, since).
		Count(&count).Error
	return count > 0, err
}

// EverSent course_complete 终身只发一次的判据
func (r *NudgeRepository) EverSent(userID uint, courseID, nudgeType string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.NudgeLogEntry{}).
		Where("user_id = ? AND course_id = ? AND nudge_type = ?", userID, courseID, nudgeType).
		Count(&count).Error
	return count > 0, err
}

// Create 仅在邮件确认送达后调用
func (r *NudgeRepository) Create(entry *model.NudgeLogEntry) error {
	return r.DB.Create(entry).Error
}

type NudgeTypeCount struct {
	NudgeType string `json:"nudge_type"`
	Sent      int64  `json:"sent"`
}

func (r *NudgeRepository) CountsByType() ([]NudgeTypeCount, error) {
	var counts []NudgeTypeCount
	err := r.DB.Model(&model.NudgeLogEntry{}).
		Select("nudge_type, COUNT(*) as sent").
		Group("nudge_type").
		Scan(&counts).Error
	return counts, err
}

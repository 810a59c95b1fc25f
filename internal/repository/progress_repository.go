package repository

import (
	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

// CreateIfAbsent 幂等完成课时，返回插入是否生效。
// 重复完成不生效，调用方据此短路 XP 级联。
func (r *ProgressRepository) CreateIfAbsent(p *model.LessonProgress) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ProgressRepository) ListLessonIDs(userID uint, courseID string) ([]string, error) {
	var ids []string
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("id").
		Pluck("lesson_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) CountCompleted(userID uint, courseID string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}

// CountCompletedIn 给定课时集合中已完成的数量，模块完成判定用
func (r *ProgressRepository) CountCompletedIn(userID uint, courseID string, lessonIDs []string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND lesson_id IN ?", userID, courseID, lessonIDs).
		Count(&count).Error
	return count, err
}

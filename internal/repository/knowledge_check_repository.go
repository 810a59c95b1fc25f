package repository

import (
	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KnowledgeCheckRepository struct {
	DB *gorm.DB
}

func NewKnowledgeCheckRepository(db *gorm.DB) *KnowledgeCheckRepository {
	return &KnowledgeCheckRepository{DB: db}
}

func (r *KnowledgeCheckRepository) WithTx(tx *gorm.DB) *KnowledgeCheckRepository {
	return &KnowledgeCheckRepository{DB: tx}
}

// CreateIfAbsent 记录首次作答。重复提交被接受但不生效，
// 存储的正确性以第一次为准。
func (r *KnowledgeCheckRepository) CreateIfAbsent(a *model.KnowledgeCheckAnswer) (bool, error) {
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Find 取某题的已存作答行
func (r *KnowledgeCheckRepository) Find(userID uint, courseID, lessonID, questionHash string) (*model.KnowledgeCheckAnswer, error) {
	var answer model.KnowledgeCheckAnswer
	err := r.DB.Where("user_id = ? AND course_id = ? AND lesson_id = ? AND question_hash = ?",
		userID, courseID, lessonID, questionHash).First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

package service

import (
	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// XPService 台账是事实来源，users.total_xp 是缓存投影。
// 两者只在同一事务内一起变更。
type XPService struct {
	XP    *repository.XPRepository
	Users *repository.UserRepository
}

func NewXPService(xp *repository.XPRepository, users *repository.UserRepository) *XPService {
	return &XPService{XP: xp, Users: users}
}

// Award 以 (user, course, eventType, referenceID) 为幂等键追加台账行，
// 仅在插入生效时累加计数器。返回本次是否真正计分。
func (s *XPService) Award(tx *gorm.DB, userID uint, courseID, eventType string, amount int, referenceID string) (bool, error) {
	entry := model.XPLogEntry{
		UserID:      userID,
		CourseID:    courseID,
		EventType:   eventType,
		XPAmount:    amount,
		ReferenceID: referenceID,
	}

	inserted, err := s.XP.WithTx(tx).AppendIfAbsent(&entry)
	if err != nil {
		return false, err
	}
	if !inserted {
		return false, nil
	}

	if err := s.Users.WithTx(tx).IncrementXP(userID, amount); err != nil {
		return false, err
	}

	monitoring.XPAwardCounter.WithLabelValues(eventType).Inc()
	return true, nil
}

// HasEvent 某类事件是否已有台账行（不区分 reference）
func (s *XPService) HasEvent(tx *gorm.DB, userID uint, courseID, eventType string) (bool, error) {
	return s.XP.WithTx(tx).HasEvent(userID, courseID, eventType)
}

// Reconcile 以台账重算某用户的 total_xp，返回重算后的值
func (s *XPService) Reconcile(userID uint) (int, error) {
	sum, err := s.XP.SumForUser(userID)
	if err != nil {
		return 0, err
	}
	err = s.Users.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("total_xp", sum).Error
	return int(sum), err
}

// ReconcileByEmail 管理入口：缓存列与台账不一致时人工矫正
func (s *XPService) ReconcileByEmail(email string) (int, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, util.ErrUserNotFound
	}
	return s.Reconcile(user.ID)
}

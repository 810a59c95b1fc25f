package service

import (
	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/logger"
	"gravel_course_backend/pkg/security"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccessService 授权的查验、手动授予与退订
type AccessService struct {
	Users       *repository.UserRepository
	Enrollments *repository.EnrollmentRepository
	Cfg         *config.Config
}

func NewAccessService(users *repository.UserRepository, enrollments *repository.EnrollmentRepository, cfg *config.Config) *AccessService {
	return &AccessService{Users: users, Enrollments: enrollments, Cfg: cfg}
}

// Verify 用户或授权不存在都只回 false，不报错
func (s *AccessService) Verify(email, courseID string) (bool, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return s.Enrollments.Exists(user.ID, courseID)
}

// Grant 管理员手动授予。未提供会话 id 时生成带唯一后缀的标记，
// 同一用户多次手动授予不同课程不会撞 session 唯一索引。
func (s *AccessService) Grant(email, courseID, sessionID string, amountCents int, currency string) error {
	user, err := s.Users.GetOrCreate(email)
	if err != nil {
		return err
	}

	if sessionID == "" {
		sessionID = "manual_grant_" + uuid.New().String()
	}
	if currency == "" {
		currency = "usd"
	}

	_, err = s.Enrollments.CreateIfAbsent(&model.Enrollment{
		UserID:          user.ID,
		CourseID:        courseID,
		StripeSessionID: sessionID,
		AmountCents:     amountCents,
		Currency:        currency,
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Access granted",
		zap.String("email", email),
		zap.String("course_id", courseID),
		zap.String("session_id", sessionID))
	return nil
}

// Unsubscribe 校验无状态 HMAC 令牌后置一次性退订标记。
// 令牌恒定时间比较；不存在的用户返回 ErrUserNotFound。
func (s *AccessService) Unsubscribe(email, token string) error {
	if !security.VerifyHMAC(email+":unsubscribe", s.Cfg.Nudge.UnsubscribeSecret, token) {
		return util.ErrInvalidSignature
	}

	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return util.ErrUserNotFound
	}

	return s.Users.SetUnsubscribed(user.ID)
}

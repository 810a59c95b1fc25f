package service

import (
	"fmt"
	"time"

	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/logger"
	"gravel_course_backend/pkg/monitoring"

	"go.uber.org/zap"
)

const nudgeThrottle = 48 * time.Hour

// RunSummary 一次 nudge 任务的分类计数，定时触发和手动触发共用
type RunSummary struct {
	StreakRisk      int `json:"streak_risk"`
	NearCompletion  int `json:"near_completion"`
	CourseComplete  int `json:"course_complete"`
	Inactive        int `json:"inactive"`
	SkippedThrottle int `json:"skipped_throttle"`
	Errors          int `json:"errors"`
}

// NudgeService 每日扫描全部未退订用户，按优先级为每人至多选一类 nudge。
// 邮件确认发出才落日志，失败留给下一轮自然重试。
type NudgeService struct {
	Users       *repository.UserRepository
	Enrollments *repository.EnrollmentRepository
	Progress    *repository.ProgressRepository
	XP          *repository.XPRepository
	Nudges      *repository.NudgeRepository
	Sender      EmailSender
	Cfg         *config.Config

	Now func() time.Time
}

func NewNudgeService(
	users *repository.UserRepository,
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	xp *repository.XPRepository,
	nudges *repository.NudgeRepository,
	sender EmailSender,
	cfg *config.Config,
) *NudgeService {
	return &NudgeService{
		Users:       users,
		Enrollments: enrollments,
		Progress:    progress,
		XP:          xp,
		Nudges:      nudges,
		Sender:      sender,
		Cfg:         cfg,
		Now:         time.Now,
	}
}

// Run 串行扫描。单个用户出错只计入 errors，不中断整轮任务。
func (s *NudgeService) Run() *RunSummary {
	now := s.Now().UTC()
	summary := &RunSummary{}

	users, err := s.Users.ListNudgeCandidates()
	if err != nil {
		logger.Log.Error("Nudge run: listing candidates failed", zap.Error(err))
		summary.Errors++
		return summary
	}

	for i := range users {
		if err := s.runForUser(&users[i], now, summary); err != nil {
			logger.Log.Error("Nudge error", zap.Uint("user_id", users[i].ID), zap.Error(err))
			summary.Errors++
		}
	}

	logger.Log.Info("Nudge run complete",
		zap.Int("streak_risk", summary.StreakRisk),
		zap.Int("near_completion", summary.NearCompletion),
		zap.Int("course_complete", summary.CourseComplete),
		zap.Int("inactive", summary.Inactive),
		zap.Int("skipped_throttle", summary.SkippedThrottle),
		zap.Int("errors", summary.Errors))
	return summary
}

func (s *NudgeService) runForUser(user *model.User, now time.Time, summary *RunSummary) error {
	// 48 小时节流先于所有分类：窗口内发过任意 nudge 就整轮跳过该用户
	throttled, err := s.Nudges.SentSince(user.ID, now.Add(-nudgeThrottle))
	if err != nil {
		return err
	}
	if throttled {
		summary.SkippedThrottle++
		return nil
	}

	enrollments, err := s.Enrollments.ListByUser(user.ID)
	if err != nil {
		return err
	}

	today := now.Format(util.DateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(util.DateFormat)
	twoDaysAgo := now.AddDate(0, 0, -2).Format(util.DateFormat)
	sevenDaysAgo := now.AddDate(0, 0, -7).Format(util.DateFormat)

	for _, enrollment := range enrollments {
		courseID := enrollment.CourseID

		lessonsCompleted, err := s.Progress.CountCompleted(user.ID, courseID)
		if err != nil {
			return err
		}

		// 1. streak_risk：连胜 >= 3，昨天活跃而今天还没有
		if user.CurrentStreak >= 3 &&
			user.LastActiveDate != "" &&
			user.LastActiveDate != today &&
			user.LastActiveDate == yesterday {
			if err := s.dispatch(user, courseID, model.NudgeStreakRisk, lessonsCompleted, now); err != nil {
				return err
			}
			summary.StreakRisk++
			return nil
		}

		courseCompleted, err := s.XP.HasEvent(user.ID, courseID, model.EventCourseComplete)
		if err != nil {
			return err
		}

		// 2. course_complete：完课庆祝，每 (user, course) 终身一次
		if courseCompleted {
			alreadySent, err := s.Nudges.EverSent(user.ID, courseID, model.NudgeCourseComplete)
			if err != nil {
				return err
			}
			if !alreadySent {
				if err := s.dispatch(user, courseID, model.NudgeCourseComplete, lessonsCompleted, now); err != nil {
					return err
				}
				summary.CourseComplete++
				return nil
			}
		}

		// 3. near_completion：有模块完成记录视为进度可观，停滞两天以上
		hasModuleComplete, err := s.XP.HasEvent(user.ID, courseID, model.EventModuleComplete)
		if err != nil {
			return err
		}
		if user.LastActiveDate != "" &&
			user.LastActiveDate <= twoDaysAgo &&
			hasModuleComplete &&
			lessonsCompleted >= 3 {
			if err := s.dispatch(user, courseID, model.NudgeNearCompletion, lessonsCompleted, now); err != nil {
				return err
			}
			summary.NearCompletion++
			return nil
		}

		// 4. inactive：七天以上没动静且课程未完
		if user.LastActiveDate != "" &&
			user.LastActiveDate <= sevenDaysAgo &&
			!courseCompleted {
			if err := s.dispatch(user, courseID, model.NudgeInactive, lessonsCompleted, now); err != nil {
				return err
			}
			summary.Inactive++
			return nil
		}
	}

	return nil
}

// dispatch 发送并在成功后落日志。失败返回错误，日志不写，下一轮重试。
func (s *NudgeService) dispatch(user *model.User, courseID, nudgeType string, lessonsCompleted int64, now time.Time) error {
	if s.Cfg.Nudge.UnsubscribeSecret == "" {
		return fmt.Errorf("unsubscribe secret not configured")
	}

	unsubscribeBase := s.Cfg.Site.BaseURL + "/api/unsubscribe"
	msg := buildNudgeEmail(nudgeType, courseID, user.Email, user.CurrentStreak, lessonsCompleted,
		s.Cfg.Site.BaseURL, unsubscribeBase, s.Cfg.Nudge.UnsubscribeSecret)

	if err := s.Sender.Send(user.Email, msg.Subject, msg.HTML); err != nil {
		return err
	}

	if err := s.Nudges.Create(&model.NudgeLogEntry{
		UserID:    user.ID,
		NudgeType: nudgeType,
		CourseID:  courseID,
		SentAt:    now,
	}); err != nil {
		return err
	}

	monitoring.NudgeCounter.WithLabelValues(nudgeType).Inc()
	logger.Log.Info("Nudge sent",
		zap.String("nudge_type", nudgeType),
		zap.Uint("user_id", user.ID),
		zap.String("course_id", courseID))
	return nil
}

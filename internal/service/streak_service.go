package service

import (
	"time"

	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"

	"gorm.io/gorm"
)

// StreakService 日粒度连续活跃计数。所有日期按 UTC 日历日取值。
type StreakService struct {
	Users   *repository.UserRepository
	Streaks *repository.StreakRepository

	// 测试注入时钟
	Now func() time.Time
}

func NewStreakService(users *repository.UserRepository, streaks *repository.StreakRepository) *StreakService {
	return &StreakService{
		Users:   users,
		Streaks: streaks,
		Now:     time.Now,
	}
}

// RecordActivity 在调用方事务内记一次当日活动并推进连胜计数。
// streak_history 当日已有记录时计数器保持不变，重复调用无副作用。
func (s *StreakService) RecordActivity(tx *gorm.DB, userID uint) (currentStreak, longestStreak int, err error) {
	now := s.Now().UTC()
	today := now.Format(util.DateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(util.DateFormat)

	users := s.Users.WithTx(tx)
	streaks := s.Streaks.WithTx(tx)

	user, err := users.FindByID(userID)
	if err != nil {
		return 0, 0, err
	}

	inserted, err := streaks.MarkActive(userID, today)
	if err != nil {
		return 0, 0, err
	}
	if !inserted {
		// 当日已记过活动
		return user.CurrentStreak, user.LongestStreak, nil
	}

	var newStreak int
	switch user.LastActiveDate {
	case today:
		newStreak = user.CurrentStreak
	case yesterday:
		newStreak = user.CurrentStreak + 1
	default:
		// 断档两天以上，或从未活跃
		newStreak = 1
	}

	longest := user.LongestStreak
	if newStreak > longest {
		longest = newStreak
	}

	if err := users.UpdateStreak(userID, today, newStreak, longest); err != nil {
		return 0, 0, err
	}

	return newStreak, longest, nil
}

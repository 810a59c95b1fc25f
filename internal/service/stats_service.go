package service

import (
	"context"
	"encoding/json"
	"time"

	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const leaderboardCacheTTL = 60 * time.Second

type UserStats struct {
	TotalXP         int             `json:"total_xp"`
	CurrentStreak   int             `json:"current_streak"`
	LongestStreak   int             `json:"longest_streak"`
	LastActiveDate  string          `json:"last_active_date"`
	Level           model.LevelInfo `json:"level"`
	LeaderboardRank *int64          `json:"leaderboard_rank"`
}

type LeaderboardEntry struct {
	Rank             int             `json:"rank"`
	UserHash         string          `json:"user_hash"`
	TotalXP          int             `json:"total_xp"`
	CurrentStreak    int             `json:"current_streak"`
	LessonsCompleted int64           `json:"lessons_completed"`
	Level            model.LevelInfo `json:"level"`
}

type Leaderboard struct {
	CourseID    string             `json:"course_id"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// StatsService 个人统计与课程排行榜。排行榜读多写少，
// 走 Redis 短缓存，缓存故障降级为直查。
type StatsService struct {
	Users *repository.UserRepository
	Redis *redis.Client
}

func NewStatsService(users *repository.UserRepository, rdb *redis.Client) *StatsService {
	return &StatsService{Users: users, Redis: rdb}
}

// Stats 未知用户返回 ErrUserNotFound；courseID 非空时附带课程内名次
func (s *StatsService) Stats(email, courseID string) (*UserStats, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrUserNotFound
	}

	stats := &UserStats{
		TotalXP:        user.TotalXP,
		CurrentStreak:  user.CurrentStreak,
		LongestStreak:  user.LongestStreak,
		LastActiveDate: user.LastActiveDate,
		Level:          model.LevelFor(user.TotalXP),
	}

	if courseID != "" {
		ahead, err := s.Users.CountEnrolledWithMoreXP(courseID, user.TotalXP)
		if err != nil {
			return nil, err
		}
		rank := ahead + 1
		stats.LeaderboardRank = &rank
	}

	return stats, nil
}

// Top10 排行榜。缓存键按课程分片
func (s *StatsService) Top10(ctx context.Context, courseID string) (*Leaderboard, error) {
	cacheKey := "leaderboard:" + courseID

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Result(); err == nil {
			var board Leaderboard
			if json.Unmarshal([]byte(cached), &board) == nil {
				return &board, nil
			}
		}
	}

	rows, err := s.Users.LeaderboardTop(courseID, 10)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{CourseID: courseID, Leaderboard: make([]LeaderboardEntry, 0, len(rows))}
	for i, row := range rows {
		board.Leaderboard = append(board.Leaderboard, LeaderboardEntry{
			Rank:             i + 1,
			UserHash:         row.EmailHash,
			TotalXP:          row.TotalXP,
			CurrentStreak:    row.CurrentStreak,
			LessonsCompleted: row.LessonsCompleted,
			Level:            model.LevelFor(row.TotalXP),
		})
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(board); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, payload, leaderboardCacheTTL).Err(); err != nil {
				logger.Log.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	return board, nil
}

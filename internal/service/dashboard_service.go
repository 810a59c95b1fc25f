package service

import (
	"time"

	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"
)

// DashboardService 汇总管理面板数据。全部只读聚合，单次请求现算，
// 量级由课程数和近七日报名数决定，暂不需要缓存。
type DashboardService struct {
	Dashboard *repository.DashboardRepository
	Streaks   *repository.StreakRepository
	Nudges    *repository.NudgeRepository

	Now func() time.Time
}

func NewDashboardService(
	dashboard *repository.DashboardRepository,
	streaks *repository.StreakRepository,
	nudges *repository.NudgeRepository,
) *DashboardService {
	return &DashboardService{
		Dashboard: dashboard,
		Streaks:   streaks,
		Nudges:    nudges,
		Now:       time.Now,
	}
}

type RevenueSection struct {
	TotalEnrollments  int64                       `json:"total_enrollments"`
	TotalRevenueCents int64                       `json:"total_revenue_cents"`
	ByCourse          []repository.CourseRevenue  `json:"by_course"`
	RecentPurchases   []repository.RecentPurchase `json:"recent_purchases"`
}

type EngagementSection struct {
	ActiveToday int64 `json:"active_today"`
	Active7d    int64 `json:"active_7d"`
	Active30d   int64 `json:"active_30d"`
}

type StreakSection struct {
	ActiveStreaks []repository.ActiveStreak `json:"active_streaks"`
}

type NudgeSection struct {
	SentByType []repository.NudgeTypeCount `json:"sent_by_type"`
}

type Dashboard struct {
	GeneratedAt     time.Time                 `json:"generated_at"`
	Revenue         RevenueSection            `json:"revenue"`
	Engagement      EngagementSection         `json:"engagement"`
	Streaks         StreakSection             `json:"streaks"`
	CourseHealth    []repository.CourseHealth `json:"course_health"`
	KnowledgeChecks []repository.KCAccuracy   `json:"knowledge_checks"`
	Nudges          NudgeSection              `json:"nudges"`
}

func (s *DashboardService) Build() (*Dashboard, error) {
	now := s.Now().UTC()
	dash := &Dashboard{GeneratedAt: now}

	var err error
	if dash.Revenue.TotalEnrollments, err = s.Dashboard.TotalEnrollments(); err != nil {
		return nil, err
	}
	if dash.Revenue.TotalRevenueCents, err = s.Dashboard.TotalRevenueCents(); err != nil {
		return nil, err
	}
	if dash.Revenue.ByCourse, err = s.Dashboard.RevenueByCourse(); err != nil {
		return nil, err
	}
	if dash.Revenue.RecentPurchases, err = s.Dashboard.RecentPurchases(now.AddDate(0, 0, -7), 20); err != nil {
		return nil, err
	}

	today := now.Format(util.DateFormat)
	if dash.Engagement.ActiveToday, err = s.Streaks.CountDistinctActiveOn(today); err != nil {
		return nil, err
	}
	if dash.Engagement.Active7d, err = s.Streaks.CountDistinctActiveSince(now.AddDate(0, 0, -7).Format(util.DateFormat)); err != nil {
		return nil, err
	}
	if dash.Engagement.Active30d, err = s.Streaks.CountDistinctActiveSince(now.AddDate(0, 0, -30).Format(util.DateFormat)); err != nil {
		return nil, err
	}

	// 连胜视为存续的窗口：最近两天内有活跃
	streakCutoff := now.AddDate(0, 0, -2).Format(util.DateFormat)
	if dash.Streaks.ActiveStreaks, err = s.Dashboard.ActiveStreaks(streakCutoff, 20); err != nil {
		return nil, err
	}

	if dash.CourseHealth, err = s.Dashboard.CourseHealthStats(); err != nil {
		return nil, err
	}
	if dash.KnowledgeChecks, err = s.Dashboard.KCAccuracyStats(); err != nil {
		return nil, err
	}
	if dash.Nudges.SentByType, err = s.Nudges.CountsByType(); err != nil {
		return nil, err
	}

	return dash, nil
}

package service

import (
	"testing"
	"time"

	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboard(env *testEnv, now time.Time) *DashboardService {
	svc := NewDashboardService(
		repository.NewDashboardRepository(env.db),
		env.streakRepo,
		env.nudgeRepo,
	)
	svc.Now = func() time.Time { return now }
	return svc
}

func TestDashboardRevenueAndHealth(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	dash := newDashboard(env, nudgeNow)

	a := env.enroll(t, "a@example.com", testCourse)
	env.enroll(t, "b@example.com", testCourse)
	env.enroll(t, "c@example.com", "another-course")

	// a 开始学且完课
	_, err := env.progressRepo.CreateIfAbsent(&model.LessonProgress{UserID: a.ID, CourseID: testCourse, LessonID: "lesson-1"})
	require.NoError(t, err)
	seedXPEvent(t, env, a.ID, testCourse, model.EventCourseComplete, testCourse)

	result, err := dash.Build()
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.Revenue.TotalEnrollments)
	assert.Equal(t, int64(3*9900), result.Revenue.TotalRevenueCents)
	assert.Len(t, result.Revenue.ByCourse, 2)
	assert.Len(t, result.Revenue.RecentPurchases, 3)

	var health *repository.CourseHealth
	for i := range result.CourseHealth {
		if result.CourseHealth[i].CourseID == testCourse {
			health = &result.CourseHealth[i]
		}
	}
	require.NotNil(t, health)
	assert.Equal(t, int64(2), health.Enrolled)
	assert.Equal(t, int64(1), health.Started)
	assert.Equal(t, int64(1), health.Completed)
}

func TestDashboardEngagementWindows(t *testing.T) {
	env := newTestEnv(t)
	dash := newDashboard(env, nudgeNow)

	a := env.enroll(t, "a@example.com", testCourse)
	b := env.enroll(t, "b@example.com", testCourse)

	// a 今天活跃，b 十天前活跃
	_, err := env.streakRepo.MarkActive(a.ID, nudgeNow.Format("2006-01-02"))
	require.NoError(t, err)
	_, err = env.streakRepo.MarkActive(b.ID, nudgeNow.AddDate(0, 0, -10).Format("2006-01-02"))
	require.NoError(t, err)

	result, err := dash.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Engagement.ActiveToday)
	assert.Equal(t, int64(1), result.Engagement.Active7d)
	assert.Equal(t, int64(2), result.Engagement.Active30d)
}

func TestDashboardActiveStreakWindow(t *testing.T) {
	env := newTestEnv(t)
	dash := newDashboard(env, nudgeNow)

	a := env.enroll(t, "a@example.com", testCourse)
	b := env.enroll(t, "b@example.com", testCourse)
	c := env.enroll(t, "c@example.com", testCourse)

	// a 昨天活跃，b 前天活跃（连胜仍算存续），c 三天前活跃（已断）
	require.NoError(t, env.users.UpdateStreak(a.ID, dateAgo(1), 5, 5))
	require.NoError(t, env.users.UpdateStreak(b.ID, dateAgo(2), 3, 3))
	require.NoError(t, env.users.UpdateStreak(c.ID, dateAgo(3), 7, 7))

	result, err := dash.Build()
	require.NoError(t, err)
	require.Len(t, result.Streaks.ActiveStreaks, 2)
	assert.Equal(t, 5, result.Streaks.ActiveStreaks[0].CurrentStreak)
	assert.Equal(t, 3, result.Streaks.ActiveStreaks[1].CurrentStreak)
}

func TestDashboardKnowledgeCheckAccuracy(t *testing.T) {
	env := newTestEnv(t)
	dash := newDashboard(env, nudgeNow)

	a := env.enroll(t, "a@example.com", testCourse)
	b := env.enroll(t, "b@example.com", testCourse)

	for _, seed := range []struct {
		userID  uint
		correct bool
	}{{a.ID, true}, {b.ID, false}} {
		_, err := env.kc.CreateIfAbsent(&model.KnowledgeCheckAnswer{
			UserID:       seed.userID,
			CourseID:     testCourse,
			LessonID:     "lesson-1",
			QuestionHash: "a1b2c3d4",
			Correct:      seed.correct,
		})
		require.NoError(t, err)
	}

	result, err := dash.Build()
	require.NoError(t, err)
	require.Len(t, result.KnowledgeChecks, 1)
	assert.Equal(t, int64(2), result.KnowledgeChecks[0].Attempts)
	assert.Equal(t, int64(1), result.KnowledgeChecks[0].CorrectCount)
	assert.InDelta(t, 50.0, result.KnowledgeChecks[0].AccuracyPct, 0.01)
}

func TestDashboardNudgeCounts(t *testing.T) {
	env := newTestEnv(t)
	dash := newDashboard(env, nudgeNow)

	a := env.enroll(t, "a@example.com", testCourse)
	for _, nudgeType := range []string{model.NudgeStreakRisk, model.NudgeStreakRisk, model.NudgeInactive} {
		require.NoError(t, env.nudgeRepo.Create(&model.NudgeLogEntry{
			UserID:    a.ID,
			NudgeType: nudgeType,
			CourseID:  testCourse,
			SentAt:    nudgeNow,
		}))
	}

	result, err := dash.Build()
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, row := range result.Nudges.SentByType {
		counts[row.NudgeType] = row.Sent
	}
	assert.Equal(t, int64(2), counts[model.NudgeStreakRisk])
	assert.Equal(t, int64(1), counts[model.NudgeInactive])
}

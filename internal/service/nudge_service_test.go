package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gravel_course_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nudge 测试的基准时刻，具体日期无特殊含义
var nudgeNow = time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC)

func dateAgo(days int) string {
	return nudgeNow.AddDate(0, 0, -days).Format("2006-01-02")
}

func seedXPEvent(t *testing.T, env *testEnv, userID uint, courseID, eventType, ref string) {
	t.Helper()
	inserted, err := env.xpRepo.AppendIfAbsent(&model.XPLogEntry{
		UserID:      userID,
		CourseID:    courseID,
		EventType:   eventType,
		XPAmount:    1,
		ReferenceID: ref,
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func seedLessons(t *testing.T, env *testEnv, userID uint, courseID string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := env.progressRepo.CreateIfAbsent(&model.LessonProgress{
			UserID:   userID,
			CourseID: courseID,
			LessonID: fmt.Sprintf("lesson-%d", i),
		})
		require.NoError(t, err)
	}
}

func TestNudgeStreakRisk(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 4, 4))

	summary := env.nudges.Run()

	assert.Equal(t, 1, summary.StreakRisk)
	assert.Equal(t, 0, summary.Errors)
	require.Equal(t, 1, env.sender.count())
	assert.Equal(t, "rider@example.com", env.sender.sent[0].To)
	assert.Contains(t, env.sender.sent[0].HTML, "unsubscribe")
}

func TestNudgeStreakRiskRequiresMinimumStreak(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 2, 2))

	summary := env.nudges.Run()
	assert.Equal(t, 0, summary.StreakRisk)
	assert.Equal(t, 0, env.sender.count())
}

func TestNudgeCourseCompleteOnceEver(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	seedXPEvent(t, env, user.ID, testCourse, model.EventCourseComplete, testCourse)

	summary := env.nudges.Run()
	assert.Equal(t, 1, summary.CourseComplete)

	// 节流窗口过去后也不再发第二封庆祝
	env.setClock(nudgeNow.Add(72 * time.Hour))
	summary = env.nudges.Run()
	assert.Equal(t, 0, summary.CourseComplete)
	assert.Equal(t, 1, env.sender.count())
}

func TestNudgeNearCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(3), 1, 1))
	seedXPEvent(t, env, user.ID, testCourse, model.EventModuleComplete, "lesson-1,lesson-2")
	seedLessons(t, env, user.ID, testCourse, 3)

	summary := env.nudges.Run()
	assert.Equal(t, 1, summary.NearCompletion)
	require.Equal(t, 1, env.sender.count())
	assert.Contains(t, strings.ToLower(env.sender.sent[0].Subject), "almost done")
}

func TestNudgeInactive(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(8), 1, 1))

	summary := env.nudges.Run()
	assert.Equal(t, 1, summary.Inactive)
}

func TestNudgeInactiveSkipsCompletedCourse(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(8), 1, 1))
	seedXPEvent(t, env, user.ID, testCourse, model.EventCourseComplete, testCourse)

	// 完课庆祝先于 inactive；庆祝发过之后这门课不再算 inactive
	summary := env.nudges.Run()
	assert.Equal(t, 1, summary.CourseComplete)
	assert.Equal(t, 0, summary.Inactive)

	env.setClock(nudgeNow.Add(72 * time.Hour))
	summary = env.nudges.Run()
	assert.Equal(t, 0, summary.Inactive)
}

func TestNudgeThrottle48h(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 4, 4))

	summary := env.nudges.Run()
	require.Equal(t, 1, summary.StreakRisk)

	// 同一天再跑一轮：被节流，不重发
	summary = env.nudges.Run()
	assert.Equal(t, 0, summary.StreakRisk)
	assert.Equal(t, 1, summary.SkippedThrottle)
	assert.Equal(t, 1, env.sender.count())
}

func TestNudgeAtMostOnePerUserPerRun(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	env.enroll(t, "rider@example.com", "second-course")
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 4, 4))

	// 两门课都可能触发，但每人每轮至多一封
	summary := env.nudges.Run()
	total := summary.StreakRisk + summary.NearCompletion + summary.CourseComplete + summary.Inactive
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, env.sender.count())
}

func TestNudgeSkipsUnsubscribedUsers(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 4, 4))
	require.NoError(t, env.users.SetUnsubscribed(user.ID))

	summary := env.nudges.Run()
	assert.Equal(t, 0, summary.StreakRisk)
	assert.Equal(t, 0, env.sender.count())
}

func TestNudgeSendFailureLeavesNoLog(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(nudgeNow)
	user := env.enroll(t, "rider@example.com", testCourse)
	require.NoError(t, env.users.UpdateStreak(user.ID, dateAgo(1), 4, 4))
	env.sender.fail = true

	summary := env.nudges.Run()
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 0, summary.StreakRisk)

	// 日志未落，下一轮不受节流影响正常重试
	env.sender.fail = false
	summary = env.nudges.Run()
	assert.Equal(t, 1, summary.StreakRisk)
	assert.Equal(t, 1, env.sender.count())
}

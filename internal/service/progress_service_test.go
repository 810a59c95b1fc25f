package service

import (
	"fmt"
	"testing"
	"time"

	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCourse = "gravel-race-prep"

func TestCompleteLessonAwardsXPAndStreak(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	state, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"lesson-1"}, state.CompletedLessons)
	assert.Equal(t, model.XPLessonComplete, state.XPAwarded)
	assert.Equal(t, model.XPLessonComplete, state.TotalXP)
	assert.Equal(t, 1, state.CurrentStreak)
	assert.Equal(t, "2026-03-10", state.LastActive)
	require.Len(t, state.XPEvents, 1)
	assert.Equal(t, model.EventLessonComplete, state.XPEvents[0].Type)
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	_, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", nil, 0)
	require.NoError(t, err)

	state, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", nil, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, state.XPAwarded)
	assert.Empty(t, state.XPEvents)
	assert.Equal(t, model.XPLessonComplete, state.TotalXP)
	assert.Len(t, state.CompletedLessons, 1)
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)

	// 未知用户与未授权用户拿到同一个错误
	_, err := env.progress.CompleteLesson("stranger@example.com", testCourse, "lesson-1", nil, 0)
	assert.ErrorIs(t, err, util.ErrNoAccess)

	env.enroll(t, "rider@example.com", "another-course")
	_, err = env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", nil, 0)
	assert.ErrorIs(t, err, util.ErrNoAccess)
}

func TestModuleBonusOnLastLessonOfModule(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	moduleIDs := []string{"lesson-1", "lesson-2"}

	state, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", moduleIDs, 0)
	require.NoError(t, err)
	assert.Equal(t, model.XPLessonComplete, state.XPAwarded)

	state, err = env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-2", moduleIDs, 0)
	require.NoError(t, err)
	assert.Equal(t, model.XPLessonComplete+model.XPModuleComplete, state.XPAwarded)
	require.Len(t, state.XPEvents, 2)
	assert.Equal(t, model.EventModuleComplete, state.XPEvents[1].Type)
}

func TestModuleBonusNotAwardedTwiceForSameSet(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	moduleIDs := []string{"lesson-1", "lesson-2"}
	_, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", moduleIDs, 0)
	require.NoError(t, err)
	_, err = env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-2", moduleIDs, 0)
	require.NoError(t, err)

	// 清单顺序不同也是同一个模块
	state, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-3", []string{"lesson-2", "lesson-1"}, 0)
	require.NoError(t, err)
	for _, e := range state.XPEvents {
		assert.NotEqual(t, model.EventModuleComplete, e.Type)
	}
}

func TestModuleBonusRejectsBadLessonList(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	// 单课时清单不构成模块
	state, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", []string{"lesson-1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.XPLessonComplete, state.XPAwarded)

	// 非法 slug 整个清单作废
	state, err = env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-2", []string{"lesson-2", "BAD SLUG"}, 0)
	require.NoError(t, err)
	assert.Equal(t, model.XPLessonComplete, state.XPAwarded)
}

func TestCourseBonusAfterAllLessons(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	var state *ProgressState
	var err error
	for i := 1; i <= 4; i++ {
		state, err = env.progress.CompleteLesson("rider@example.com", testCourse, fmt.Sprintf("lesson-%d", i), nil, 4)
		require.NoError(t, err)
	}

	assert.Equal(t, model.XPLessonComplete+model.XPCourseComplete, state.XPAwarded)
	assert.Equal(t, 100, state.PctComplete)
	assert.Equal(t, 4*model.XPLessonComplete+model.XPCourseComplete, state.TotalXP)

	// 完课奖励终身一次
	state, err = env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-5", nil, 4)
	require.NoError(t, err)
	for _, e := range state.XPEvents {
		assert.NotEqual(t, model.EventCourseComplete, e.Type)
	}
}

func TestCourseBonusRequiresMinimumClaimedLessons(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	// 声称总数 3 < 4，完成再多也不触发
	var state *ProgressState
	var err error
	for i := 1; i <= 3; i++ {
		state, err = env.progress.CompleteLesson("rider@example.com", testCourse, fmt.Sprintf("lesson-%d", i), nil, 3)
		require.NoError(t, err)
	}
	for _, e := range state.XPEvents {
		assert.NotEqual(t, model.EventCourseComplete, e.Type)
	}
}

func TestGetProgressSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	_, err := env.progress.CompleteLesson("rider@example.com", testCourse, "lesson-1", nil, 0)
	require.NoError(t, err)

	state, err := env.progress.Get("rider@example.com", testCourse, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"lesson-1"}, state.CompletedLessons)
	assert.Equal(t, 13, state.PctComplete) // 1/8 四舍五入
	assert.Equal(t, 0, state.XPAwarded)
	assert.Empty(t, state.XPEvents)
	assert.Equal(t, model.XPLessonComplete, state.TotalXP)
}

func TestRecordKnowledgeCheckAwardsOnFirstCorrect(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	result, err := env.progress.RecordKnowledgeCheck("rider@example.com", testCourse, "lesson-1", "a1b2c3d4", 2, true)
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.Equal(t, model.XPKCCorrect, result.XPAwarded)
	assert.Equal(t, model.XPKCCorrect, result.TotalXP)
	assert.Equal(t, 1, result.CurrentStreak)
}

func TestRecordKnowledgeCheckFirstAnswerWins(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	env.enroll(t, "rider@example.com", testCourse)

	// 首答答错
	result, err := env.progress.RecordKnowledgeCheck("rider@example.com", testCourse, "lesson-1", "a1b2c3d4", 1, false)
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.Equal(t, 0, result.XPAwarded)

	// 改答正确不生效：同一题以首答为准，回显存储的正确性
	result, err = env.progress.RecordKnowledgeCheck("rider@example.com", testCourse, "lesson-1", "a1b2c3d4", 2, true)
	require.NoError(t, err)
	assert.True(t, result.Recorded)
	assert.False(t, result.Correct)
	assert.Equal(t, 0, result.XPAwarded)
	assert.Equal(t, 0, result.TotalXP)
}

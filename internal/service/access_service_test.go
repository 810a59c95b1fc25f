package service

import (
	"testing"

	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAccess(t *testing.T) {
	env := newTestEnv(t)

	has, err := env.access.Verify("stranger@example.com", testCourse)
	require.NoError(t, err)
	assert.False(t, has)

	env.enroll(t, "rider@example.com", testCourse)

	has, err = env.access.Verify("rider@example.com", testCourse)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = env.access.Verify("rider@example.com", "other-course")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestManualGrant(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.access.Grant("rider@example.com", testCourse, "", 0, ""))

	has, err := env.access.Verify("rider@example.com", testCourse)
	require.NoError(t, err)
	assert.True(t, has)

	// 重复授予和多课程授予都不报错
	require.NoError(t, env.access.Grant("rider@example.com", testCourse, "", 0, ""))
	require.NoError(t, env.access.Grant("rider@example.com", "second-course", "", 0, ""))

	has, err = env.access.Verify("rider@example.com", "second-course")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	user := env.enroll(t, "rider@example.com", testCourse)

	token := security.UnsubscribeToken("rider@example.com", env.cfg.Nudge.UnsubscribeSecret)

	// 错误令牌拒绝
	err := env.access.Unsubscribe("rider@example.com", "deadbeef")
	assert.ErrorIs(t, err, util.ErrInvalidSignature)

	// 令牌对但用户不存在
	otherToken := security.UnsubscribeToken("ghost@example.com", env.cfg.Nudge.UnsubscribeSecret)
	err = env.access.Unsubscribe("ghost@example.com", otherToken)
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	require.NoError(t, env.access.Unsubscribe("rider@example.com", token))

	fresh, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.True(t, fresh.NudgeUnsubscribed)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordActivityFirstDay(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	user := env.enroll(t, "rider@example.com", "gravel-race-prep")

	current, longest, err := env.streaks.RecordActivity(env.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)

	fresh, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", fresh.LastActiveDate)
}

func TestRecordActivitySameDayIsNoop(t *testing.T) {
	env := newTestEnv(t)
	env.setClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	user := env.enroll(t, "rider@example.com", "gravel-race-prep")

	_, _, err := env.streaks.RecordActivity(env.db, user.ID)
	require.NoError(t, err)

	// 同一天再来几次，计数器不动
	env.setClock(time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC))
	current, longest, err := env.streaks.RecordActivity(env.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, longest)
}

func TestRecordActivityConsecutiveDaysExtend(t *testing.T) {
	env := newTestEnv(t)
	user := env.enroll(t, "rider@example.com", "gravel-race-prep")

	for day := 10; day <= 14; day++ {
		env.setClock(time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC))
		_, _, err := env.streaks.RecordActivity(env.db, user.ID)
		require.NoError(t, err)
	}

	fresh, err := env.users.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fresh.CurrentStreak)
	assert.Equal(t, 5, fresh.LongestStreak)
}

func TestRecordActivityGapResetsButKeepsLongest(t *testing.T) {
	env := newTestEnv(t)
	user := env.enroll(t, "rider@example.com", "gravel-race-prep")

	for day := 10; day <= 12; day++ {
		env.setClock(time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC))
		_, _, err := env.streaks.RecordActivity(env.db, user.ID)
		require.NoError(t, err)
	}

	// 断两天
	env.setClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))
	current, longest, err := env.streaks.RecordActivity(env.db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
	assert.Equal(t, 3, longest)
}

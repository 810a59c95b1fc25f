package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForBoundaries(t *testing.T) {
	cases := []struct {
		xp    int
		level int
		name  string
	}{
		{0, 1, "Gravel Curious"},
		{49, 1, "Gravel Curious"},
		{50, 2, "Dirt Dabbler"},
		{149, 2, "Dirt Dabbler"},
		{150, 3, "Gravel Grinder"},
		{299, 3, "Gravel Grinder"},
		{300, 4, "Dust Demon"},
		{499, 4, "Dust Demon"},
		{500, 5, "Gravel God"},
		{10000, 5, "Gravel God"},
	}

	for _, tc := range cases {
		info := LevelFor(tc.xp)
		assert.Equal(t, tc.level, info.Level, "xp=%d", tc.xp)
		assert.Equal(t, tc.name, info.Name, "xp=%d", tc.xp)
	}
}

func TestLevelForXPToNext(t *testing.T) {
	info := LevelFor(40)
	require.NotNil(t, info.NextLevelXP)
	assert.Equal(t, 50, *info.NextLevelXP)
	assert.Equal(t, 10, info.XPToNext)
	require.NotNil(t, info.NextLevelName)
	assert.Equal(t, "Dirt Dabbler", *info.NextLevelName)
}

func TestLevelForTopTierHasNoNext(t *testing.T) {
	info := LevelFor(500)
	assert.Nil(t, info.NextLevelXP)
	assert.Nil(t, info.NextLevelName)
	assert.Equal(t, 0, info.XPToNext)
}

func TestLevelForNegativeXPClampsToFirstTier(t *testing.T) {
	info := LevelFor(-10)
	assert.Equal(t, 1, info.Level)
}

func TestReferenceKeyForIsStable(t *testing.T) {
	a := ReferenceKeyFor("lesson-1")
	b := ReferenceKeyFor("lesson-1")
	c := ReferenceKeyFor("lesson-2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

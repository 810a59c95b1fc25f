package model

// XP 奖励表，与前端展示的数值一致，改动需同步课程页文案
const (
	XPLessonComplete = 10
	XPKCCorrect      = 5
	XPModuleComplete = 25
	XPCourseComplete = 100
)

type LevelTier struct {
	Level int
	XP    int
	Name  string
}

// Levels 等级阈值表，升序。LevelFor 依赖该顺序。
var Levels = []LevelTier{
	{Level: 1, XP: 0, Name: "Gravel Curious"},
	{Level: 2, XP: 50, Name: "Dirt Dabbler"},
	{Level: 3, XP: 150, Name: "Gravel Grinder"},
	{Level: 4, XP: 300, Name: "Dust Demon"},
	{Level: 5, XP: 500, Name: "Gravel God"},
}

// LevelInfo 某一 XP 总量对应的等级快照，纯读模型
type LevelInfo struct {
	Level         int     `json:"level"`
	Name          string  `json:"name"`
	XPToNext      int     `json:"xp_to_next"`
	NextLevelXP   *int    `json:"next_level_xp"`
	NextLevelName *string `json:"next_level_name"`
}

// LevelFor 返回阈值不超过 totalXP 的最高等级，以及到下一级的差值。
// 纯函数，任何读取路径重复计算结果一致。
func LevelFor(totalXP int) LevelInfo {
	current := Levels[0]
	for _, tier := range Levels {
		if totalXP >= tier.XP {
			current = tier
		}
	}

	info := LevelInfo{
		Level: current.Level,
		Name:  current.Name,
	}

	for _, tier := range Levels {
		if tier.Level == current.Level+1 {
			next := tier
			info.XPToNext = next.XP - totalXP
			info.NextLevelXP = &next.XP
			info.NextLevelName = &next.Name
			break
		}
	}

	return info
}

package model

// StreakHistory 每 (用户, 日历日期) 一行，标记"该日有过活动"。
// 只追加、幂等插入；仅支撑管理面板的"窗口内活跃用户数"统计，
// 实时连胜计数以 users 表上的计数器为准。
type StreakHistory struct {
	BaseModel
	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_active_date" json:"userId"`
	ActiveDate string `gorm:"size:10;not null;uniqueIndex:idx_user_active_date;index" json:"activeDate"`
}

func (StreakHistory) TableName() string {
	return "streak_history"
}

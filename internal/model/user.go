package model

// User 以邮箱为锚点的用户记录。任何需要用户的入口（verify/progress/kc/
// grant/webhook）都会按需创建，不在线删除。
type User struct {
	BaseModel
	Email string `gorm:"size:254;uniqueIndex;not null" json:"email"`
	// 邮箱的不可逆短哈希，排行榜等公开展示只用它，不泄露原始邮箱
	EmailHash string `gorm:"size:12;not null" json:"emailHash"`

	TotalXP       int `gorm:"default:0;index" json:"totalXp"`
	CurrentStreak int `gorm:"default:0" json:"currentStreak"`
	LongestStreak int `gorm:"default:0" json:"longestStreak"`
	// UTC 日历日期 "2006-01-02"，空串表示从未活跃
	LastActiveDate string `gorm:"size:10;default:''" json:"lastActiveDate"`

	// 单向开关，置真后不再回退
	NudgeUnsubscribed bool `gorm:"default:false" json:"nudgeUnsubscribed"`
}

func (User) TableName() string {
	return "users"
}

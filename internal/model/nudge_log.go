package model

import "time"

const (
	NudgeStreakRisk     = "streak_risk"
	NudgeNearCompletion = "near_completion"
	NudgeCourseComplete = "course_complete"
	NudgeInactive       = "inactive"
)

// NudgeLogEntry 只在邮件确认发出后写入。驱动 48 小时节流和
// course_complete 终身只发一次的规则；发送失败不落日志，下次任务自然重试。
type NudgeLogEntry struct {
	BaseModel
	UserID    uint      `gorm:"not null;index" json:"userId"`
	NudgeType string    `gorm:"size:32;not null" json:"nudgeType"`
	CourseID  string    `gorm:"size:100;not null" json:"courseId"`
	SentAt    time.Time `gorm:"not null;index" json:"sentAt"`
}

func (NudgeLogEntry) TableName() string {
	return "nudge_log"
}

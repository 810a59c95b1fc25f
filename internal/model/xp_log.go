package model

import (
	"crypto/sha256"
	"encoding/hex"
)

const (
	EventLessonComplete = "lesson_complete"
	EventModuleComplete = "module_complete"
	EventCourseComplete = "course_complete"
	EventKCCorrect      = "kc_correct"
)

// XPLogEntry 只追加的经验值台账。用户 total_xp 必须等于其台账各行之和。
//
// reference_id 取值：lesson_complete 为课时 id，module_complete 为排序后
// 逗号连接的课时 id 集合，course_complete 为课程 id，kc_correct 为题目哈希。
// module 的引用串可超出 MySQL 索引长度上限，所以唯一键落在其定长摘要
// reference_key 上。(user, course, event_type, reference_key) 唯一索引把
// "这次奖励是否已发生"下沉到存储层：插入未生效即短路后续级联，
// 并发重复请求不会重复计分。
type XPLogEntry struct {
	BaseModel
	UserID       uint   `gorm:"not null;index;uniqueIndex:idx_award_key" json:"userId"`
	CourseID     string `gorm:"size:100;not null;uniqueIndex:idx_award_key" json:"courseId"`
	EventType    string `gorm:"size:32;not null;uniqueIndex:idx_award_key" json:"eventType"`
	XPAmount     int    `gorm:"not null" json:"xpAmount"`
	ReferenceID  string `gorm:"size:2100;not null" json:"referenceId"`
	ReferenceKey string `gorm:"size:64;not null;uniqueIndex:idx_award_key" json:"-"`
}

func (XPLogEntry) TableName() string {
	return "xp_log"
}

// ReferenceKeyFor reference_id 的定长摘要，作为奖励幂等键的一部分
func ReferenceKeyFor(referenceID string) string {
	sum := sha256.Sum256([]byte(referenceID))
	return hex.EncodeToString(sum[:])
}

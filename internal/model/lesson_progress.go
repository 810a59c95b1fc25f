package model

// LessonProgress 课时完成记录，只插入不更新不删除。
// (user, course, lesson) 唯一，重复完成同一课时是 no-op。
type LessonProgress struct {
	BaseModel
	UserID   uint   `gorm:"not null;uniqueIndex:idx_user_course_lesson" json:"userId"`
	CourseID string `gorm:"size:100;not null;uniqueIndex:idx_user_course_lesson" json:"courseId"`
	LessonID string `gorm:"size:100;not null;uniqueIndex:idx_user_course_lesson" json:"lessonId"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

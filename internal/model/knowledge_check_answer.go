package model

// KnowledgeCheckAnswer 用户对某道知识检测题的首次作答。
// 二次提交被接受但不改写已存的正确性，也不再计 XP。
type KnowledgeCheckAnswer struct {
	BaseModel
	UserID        uint   `gorm:"not null;uniqueIndex:idx_user_course_lesson_q" json:"userId"`
	CourseID      string `gorm:"size:100;not null;uniqueIndex:idx_user_course_lesson_q" json:"courseId"`
	LessonID      string `gorm:"size:100;not null;uniqueIndex:idx_user_course_lesson_q" json:"lessonId"`
	QuestionHash  string `gorm:"size:8;not null;uniqueIndex:idx_user_course_lesson_q" json:"questionHash"`
	SelectedIndex int    `gorm:"not null" json:"selectedIndex"`
	Correct       bool   `gorm:"not null" json:"correct"`
}

func (KnowledgeCheckAnswer) TableName() string {
	return "knowledge_check_answers"
}

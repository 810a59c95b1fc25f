package model

// Enrollment (user, course) 访问授权。由支付 webhook 或管理员手动授予，
// (user_id, course_id) 唯一，重复授予是 no-op；stripe_session_id 唯一，
// 防止 webhook 重放重复入账。
type Enrollment struct {
	BaseModel
	UserID          uint   `gorm:"not null;uniqueIndex:idx_user_course" json:"userId"`
	CourseID        string `gorm:"size:100;not null;uniqueIndex:idx_user_course;index" json:"courseId"`
	StripeSessionID string `gorm:"size:255;not null;uniqueIndex" json:"stripeSessionId"`
	AmountCents     int    `gorm:"default:0" json:"amountCents"`
	Currency        string `gorm:"size:8;default:'usd'" json:"currency"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

package repository

import (
	"time"

	"gravel_course_backend/internal/model"

	"gorm.io/gorm"
)

// DashboardRepository 管理面板的聚合查询。只读，不参与任何状态变更。
type DashboardRepository struct {
	DB *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{DB: db}
}

type CourseRevenue struct {
	CourseID    string `json:"course_id"`
	Enrollments int64  `json:"enrollments"`
	Revenue     int64  `json:"revenue"`
}

type RecentPurchase struct {
	CourseID    string    `json:"course_id"`
	Email       string    `json:"email"`
	AmountCents int       `json:"amount_cents"`
	Currency    string    `json:"currency"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func (r *DashboardRepository) TotalEnrollments() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Count(&count).Error
	return count, err
}

func (r *DashboardRepository) TotalRevenueCents() (int64, error) {
	var total int64
	err := r.DB.Model(&model.Enrollment{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *DashboardRepository) RevenueByCourse() ([]CourseRevenue, error) {
	var rows []CourseRevenue
	err := r.DB.Model(&model.Enrollment{}).
		Select("course_id, COUNT(*) as enrollments, COALESCE(SUM(amount_cents), 0) as revenue").
		Group("course_id").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardRepository) RecentPurchases(since time.Time, limit int) ([]RecentPurchase, error) {
	var rows []RecentPurchase
	err := r.DB.Model(&model.Enrollment{}).
		Select("enrollments.course_id, u.email, enrollments.amount_cents, enrollments.currency, enrollments.created_at as purchased_at").
		Joins("JOIN users u ON u.id = enrollments.user_id").
		Where("enrollments.created_at >= ?", since).
		Order("enrollments.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type ActiveStreak struct {
	EmailHash     string `json:"email_hash"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

// ActiveStreaks 近两日仍在续的连胜，按长度取前 limit 名
func (r *DashboardRepository) ActiveStreaks(sinceDate string, limit int) ([]ActiveStreak, error) {
	var rows []ActiveStreak
	err := r.DB.Model(&model.User{}).
		Select("email_hash, current_streak, longest_streak").
		Where("current_streak > 0 AND last_active_date >= ?", sinceDate).
		Order("current_streak DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

type CourseHealth struct {
	CourseID  string `json:"course_id"`
	Enrolled  int64  `json:"enrolled"`
	Started   int64  `json:"started"`
	Completed int64  `json:"completed"`
}

// CourseHealthStats 每门课的报名数、开课数（有任意课时记录）、
// 完课数（有 course_complete 台账行）
func (r *DashboardRepository) CourseHealthStats() ([]CourseHealth, error) {
	var rows []CourseHealth
	err := r.DB.Raw(`
		SELECT
			e.course_id,
			COUNT(DISTINCT e.user_id) AS enrolled,
			COUNT(DISTINCT lp.user_id) AS started,
			(SELECT COUNT(DISTINCT xl.user_id) FROM xp_log xl
			 WHERE xl.course_id = e.course_id AND xl.event_type = ?) AS completed
		FROM enrollments e
		LEFT JOIN lesson_progress lp
			ON lp.user_id = e.user_id AND lp.course_id = e.course_id
		GROUP BY e.course_id
	`, model.EventCourseComplete).Scan(&rows).Error
	return rows, err
}

type KCAccuracy struct {
	CourseID     string  `json:"course_id"`
	LessonID     string  `json:"lesson_id"`
	QuestionHash string  `json:"question_hash"`
	Attempts     int64   `json:"attempts"`
	CorrectCount int64   `json:"correct_count"`
	AccuracyPct  float64 `json:"accuracy_pct"`
}

// KCAccuracyStats 按题聚合的正确率，升序排列让最难的题先出现
func (r *DashboardRepository) KCAccuracyStats() ([]KCAccuracy, error) {
	var rows []KCAccuracy
	err := r.DB.Raw(`
		SELECT course_id, lesson_id, question_hash,
			COUNT(*) AS attempts,
			SUM(correct) AS correct_count,
			ROUND(SUM(correct) * 100.0 / COUNT(*), 1) AS accuracy_pct
		FROM knowledge_check_answers
		GROUP BY course_id, lesson_id, question_hash
		ORDER BY accuracy_pct ASC
	`).Scan(&rows).Error
	return rows, err
}

package repository

import (
	"errors"

	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetOrCreate 按邮箱取用户，不存在则创建。并发下靠邮箱唯一索引，
// 插入冲突后重查，两个并发调用拿到同一行。
func (r *UserRepository) GetOrCreate(email string) (*model.User, error) {
	user, err := r.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	candidate := model.User{
		Email:     email,
		EmailHash: util.EmailHash(email),
	}
	if err := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, err
	}

	return r.findByEmailStrict(email)
}

func (r *UserRepository) findByEmailStrict(email string) (*model.User, error) {
	var user model.User
	if err := r.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateStreak 回写连胜计数器与最后活跃日期
func (r *UserRepository) UpdateStreak(userID uint, lastActiveDate string, currentStreak, longestStreak int) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_active_date": lastActiveDate,
		"current_streak":   currentStreak,
		"longest_streak":   longestStreak,
	}).Error
}

// IncrementXP 计数器是台账的缓存投影，只允许与台账插入同事务调用
func (r *UserRepository) IncrementXP(userID uint, amount int) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("total_xp", gorm.Expr("total_xp + ?", amount)).Error
}

// SetUnsubscribed 单向：只置真
func (r *UserRepository) SetUnsubscribed(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("nudge_unsubscribed", true).Error
}

// ListNudgeCandidates 所有未退订用户，nudge 任务的扫描集合
func (r *UserRepository) ListNudgeCandidates() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("nudge_unsubscribed = ?", false).Order("id").Find(&users).Error
	return users, err
}

// CountEnrolledWithMoreXP 课程排行榜名次 = 比我 XP 高的同课程用户数 + 1
func (r *UserRepository) CountEnrolledWithMoreXP(courseID string, totalXP int) (int64, error) {
	var count int64
	err := r.DB.Model(&model.User{}).
		Joins("JOIN enrollments e ON e.user_id = users.id").
		Where("e.course_id = ? AND users.total_xp > ?", courseID, totalXP).
		Count(&count).Error
	return count, err
}

type LeaderboardRow struct {
	EmailHash        string `json:"email_hash"`
	TotalXP          int    `json:"total_xp"`
	CurrentStreak    int    `json:"current_streak"`
	LessonsCompleted int64  `json:"lessons_completed"`
}

// LeaderboardTop 某课程按 XP 取前 limit 名，只暴露邮箱哈希
func (r *UserRepository) LeaderboardTop(courseID string, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := r.DB.Raw(`
		SELECT u.email_hash, u.total_xp, u.current_streak,
			(SELECT COUNT(*) FROM lesson_progress lp
			 WHERE lp.user_id = u.id AND lp.course_id = ?) AS lessons_completed
		FROM users u
		JOIN enrollments e ON e.user_id = u.id
		WHERE e.course_id = ?
		ORDER BY u.total_xp DESC
		LIMIT ?
	`, courseID, courseID, limit).Scan(&rows).Error
	return rows, err
}

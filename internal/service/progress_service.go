package service

import (
	"math"
	"sort"
	"strings"

	"gravel_course_backend/internal/model"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/util"

	"gorm.io/gorm"
)

// 模块完成判定接受的课时清单边界：单课时"模块"可被白嫖，过长清单没有意义
const (
	minModuleLessons = 2
	maxModuleLessons = 20
)

// 课程完成奖励要求客户端声称的课时总数至少为 4，
// 防止 1–3 课时的集合被当作"完整课程"刷分
const minCourseLessons = 4

type XPEvent struct {
	Type string `json:"type"`
	XP   int    `json:"xp"`
}

// ProgressState /progress 的响应载荷，完成调用会带上本次计分明细
type ProgressState struct {
	CompletedLessons []string        `json:"completed_lessons"`
	LastActive       string          `json:"last_active"`
	PctComplete      int             `json:"pct_complete"`
	XPAwarded        int             `json:"xp_awarded"`
	XPEvents         []XPEvent       `json:"xp_events"`
	TotalXP          int             `json:"total_xp"`
	CurrentStreak    int             `json:"current_streak"`
	Level            model.LevelInfo `json:"level"`
}

type KCResult struct {
	Recorded      bool            `json:"recorded"`
	Correct       bool            `json:"correct"`
	XPAwarded     int             `json:"xp_awarded"`
	TotalXP       int             `json:"total_xp"`
	CurrentStreak int             `json:"current_streak"`
	Level         model.LevelInfo `json:"level"`
}

// ProgressService 课时进度与知识检测的状态机。
// 所有入口都要求已有 (user, course) 授权。
type ProgressService struct {
	DB          *gorm.DB
	Users       *repository.UserRepository
	Enrollments *repository.EnrollmentRepository
	Progress    *repository.ProgressRepository
	KC          *repository.KnowledgeCheckRepository
	XP          *XPService
	Streaks     *StreakService
}

func NewProgressService(
	db *gorm.DB,
	users *repository.UserRepository,
	enrollments *repository.EnrollmentRepository,
	progress *repository.ProgressRepository,
	kc *repository.KnowledgeCheckRepository,
	xp *XPService,
	streaks *StreakService,
) *ProgressService {
	return &ProgressService{
		DB:          db,
		Users:       users,
		Enrollments: enrollments,
		Progress:    progress,
		KC:          kc,
		XP:          xp,
		Streaks:     streaks,
	}
}

// requireAccess 用户不存在与未授权返回同一个错误
func (s *ProgressService) requireAccess(email, courseID string) (*model.User, error) {
	user, err := s.Users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, util.ErrNoAccess
	}
	enrolled, err := s.Enrollments.Exists(user.ID, courseID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.ErrNoAccess
	}
	return user, nil
}

// Get 只读进度快照。完成百分比按调用方提供的课时总数计算。
func (s *ProgressService) Get(email, courseID string, totalLessons int) (*ProgressState, error) {
	user, err := s.requireAccess(email, courseID)
	if err != nil {
		return nil, err
	}
	return s.snapshot(s.DB, user.ID, courseID, totalLessons, 0, nil)
}

// CompleteLesson 幂等完成课时。仅当插入真正生效时按序执行级联：
// 课时 XP → 模块完成判定 → 课程完成判定 → 连胜。整个级联在一个事务里，
// 课程完成判定读取的是同事务内已写入的课时行。
func (s *ProgressService) CompleteLesson(email, courseID, lessonID string, moduleLessonIDs []string, totalLessons int) (*ProgressState, error) {
	user, err := s.requireAccess(email, courseID)
	if err != nil {
		return nil, err
	}

	var awarded []XPEvent
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		inserted, err := s.Progress.WithTx(tx).CreateIfAbsent(&model.LessonProgress{
			UserID:   user.ID,
			CourseID: courseID,
			LessonID: lessonID,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// 重复完成：不计分、不动连胜
			return nil
		}

		if _, err := s.XP.Award(tx, user.ID, courseID, model.EventLessonComplete, model.XPLessonComplete, lessonID); err != nil {
			return err
		}
		awarded = append(awarded, XPEvent{Type: model.EventLessonComplete, XP: model.XPLessonComplete})

		moduleEvent, err := s.checkModuleBonus(tx, user.ID, courseID, moduleLessonIDs)
		if err != nil {
			return err
		}
		if moduleEvent != nil {
			awarded = append(awarded, *moduleEvent)
		}

		courseEvent, err := s.checkCourseBonus(tx, user.ID, courseID, totalLessons)
		if err != nil {
			return err
		}
		if courseEvent != nil {
			awarded = append(awarded, *courseEvent)
		}

		_, _, err = s.Streaks.RecordActivity(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	xpAwarded := 0
	for _, e := range awarded {
		xpAwarded += e.XP
	}
	return s.snapshot(s.DB, user.ID, courseID, totalLessons, xpAwarded, awarded)
}

// checkModuleBonus 调用方给出模块的课时清单；全部完成且该清单
// 尚未发过模块奖励时计一次分。引用串是排序后逗号连接的清单。
func (s *ProgressService) checkModuleBonus(tx *gorm.DB, userID uint, courseID string, moduleLessonIDs []string) (*XPEvent, error) {
	if len(moduleLessonIDs) < minModuleLessons || len(moduleLessonIDs) > maxModuleLessons {
		return nil, nil
	}
	for _, id := range moduleLessonIDs {
		if !util.ValidSlug(id) {
			return nil, nil
		}
	}

	done, err := s.Progress.WithTx(tx).CountCompletedIn(userID, courseID, moduleLessonIDs)
	if err != nil {
		return nil, err
	}
	if done != int64(len(moduleLessonIDs)) {
		return nil, nil
	}

	ids := append([]string(nil), moduleLessonIDs...)
	sort.Strings(ids)
	moduleRef := strings.Join(ids, ",")

	ok, err := s.XP.Award(tx, userID, courseID, model.EventModuleComplete, model.XPModuleComplete, moduleRef)
	if err != nil || !ok {
		return nil, err
	}
	return &XPEvent{Type: model.EventModuleComplete, XP: model.XPModuleComplete}, nil
}

// checkCourseBonus 课时总数由客户端声称，服务端只信自己数出来的完成数。
// 声称值低报可提前触发完成，这一点沿自上游行为，见 DESIGN.md。
func (s *ProgressService) checkCourseBonus(tx *gorm.DB, userID uint, courseID string, totalLessons int) (*XPEvent, error) {
	if totalLessons < minCourseLessons {
		return nil, nil
	}

	serverCount, err := s.Progress.WithTx(tx).CountCompleted(userID, courseID)
	if err != nil {
		return nil, err
	}
	if serverCount < int64(totalLessons) {
		return nil, nil
	}

	already, err := s.XP.HasEvent(tx, userID, courseID, model.EventCourseComplete)
	if err != nil || already {
		return nil, err
	}

	ok, err := s.XP.Award(tx, userID, courseID, model.EventCourseComplete, model.XPCourseComplete, courseID)
	if err != nil || !ok {
		return nil, err
	}
	return &XPEvent{Type: model.EventCourseComplete, XP: model.XPCourseComplete}, nil
}

// RecordKnowledgeCheck 记录首次作答；首次且答对才计分，首次作答推进连胜
func (s *ProgressService) RecordKnowledgeCheck(email, courseID, lessonID, questionHash string, selectedIndex int, correct bool) (*KCResult, error) {
	user, err := s.requireAccess(email, courseID)
	if err != nil {
		return nil, err
	}

	xpAwarded := 0
	storedCorrect := correct
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		inserted, err := s.KC.WithTx(tx).CreateIfAbsent(&model.KnowledgeCheckAnswer{
			UserID:        user.ID,
			CourseID:      courseID,
			LessonID:      lessonID,
			QuestionHash:  questionHash,
			SelectedIndex: selectedIndex,
			Correct:       correct,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// 重复提交不计分也不推进连胜，回显以首答为准
			prev, err := s.KC.WithTx(tx).Find(user.ID, courseID, lessonID, questionHash)
			if err != nil {
				return err
			}
			storedCorrect = prev.Correct
			return nil
		}

		if correct {
			ok, err := s.XP.Award(tx, user.ID, courseID, model.EventKCCorrect, model.XPKCCorrect, questionHash)
			if err != nil {
				return err
			}
			if ok {
				xpAwarded = model.XPKCCorrect
			}
		}

		_, _, err = s.Streaks.RecordActivity(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	fresh, err := s.Users.FindByID(user.ID)
	if err != nil {
		return nil, err
	}

	return &KCResult{
		Recorded:      true,
		Correct:       storedCorrect,
		XPAwarded:     xpAwarded,
		TotalXP:       fresh.TotalXP,
		CurrentStreak: fresh.CurrentStreak,
		Level:         model.LevelFor(fresh.TotalXP),
	}, nil
}

func (s *ProgressService) snapshot(db *gorm.DB, userID uint, courseID string, totalLessons, xpAwarded int, events []XPEvent) (*ProgressState, error) {
	lessons, err := s.Progress.WithTx(db).ListLessonIDs(userID, courseID)
	if err != nil {
		return nil, err
	}

	user, err := s.Users.WithTx(db).FindByID(userID)
	if err != nil {
		return nil, err
	}

	pct := 0
	if totalLessons > 0 {
		pct = int(math.Round(float64(len(lessons)) / float64(totalLessons) * 100))
	}

	if events == nil {
		events = []XPEvent{}
	}

	return &ProgressState{
		CompletedLessons: lessons,
		LastActive:       user.LastActiveDate,
		PctComplete:      pct,
		XPAwarded:        xpAwarded,
		XPEvents:         events,
		TotalXP:          user.TotalXP,
		CurrentStreak:    user.CurrentStreak,
		Level:            model.LevelFor(user.TotalXP),
	}, nil
}

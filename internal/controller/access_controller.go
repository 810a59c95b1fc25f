package controller

import (
	"errors"

	"gravel_course_backend/internal/service"
	"gravel_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AccessController struct {
	AccessService   *service.AccessService
	ProgressService *service.ProgressService
	StatsService    *service.StatsService
}

func NewAccessController(accessService *service.AccessService, progressService *service.ProgressService, statsService *service.StatsService) *AccessController {
	return &AccessController{
		AccessService:   accessService,
		ProgressService: progressService,
		StatsService:    statsService,
	}
}

// VerifyAccessRequest 验证访问请求。Website 为蜜罐字段，正常客户端恒为空
// swagger:model VerifyAccessRequest
type VerifyAccessRequest struct {
	Email    string `json:"email"`
	CourseID string `json:"course_id"`
	Website  string `json:"website"`
}

// VerifyAccess godoc
// @Summary 校验课程访问权
// @Description 按邮箱与课程查询是否已购
// @Tags 访问
// @Accept  json
// @Produce  json
// @Param   body body VerifyAccessRequest true "校验参数"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/verify [post]
func (c *AccessController) VerifyAccess(ctx *gin.Context) {
	var req VerifyAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	// 蜜罐字段被填的一律当机器人拒绝
	if req.Website != "" {
		util.BadRequest(ctx, "Bot detected")
		return
	}

	courseID := util.TruncateID(req.CourseID, 100)

	email, errMsg := util.NormalizeEmail(req.Email)
	if errMsg != "" {
		util.BadRequest(ctx, errMsg)
		return
	}

	if courseID == "" {
		util.BadRequest(ctx, util.MissingField("course_id"))
		return
	}
	if !util.ValidSlug(courseID) {
		util.BadRequest(ctx, "Invalid course_id")
		return
	}

	hasAccess, err := c.AccessService.Verify(email, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"has_access": hasAccess, "course_id": courseID})
}

// ProgressRequest 进度读写共用一个入口，action 区分
// swagger:model ProgressRequest
type ProgressRequest struct {
	Email           string   `json:"email"`
	CourseID        string   `json:"course_id"`
	Action          string   `json:"action"`
	LessonID        string   `json:"lesson_id"`
	ModuleLessonIDs []string `json:"module_lesson_ids"`
	TotalLessons    int      `json:"total_lessons"`
	Website         string   `json:"website"`
}

// HandleProgress godoc
// @Summary 查询或上报课程进度
// @Description action=get 返回进度快照；action=complete 幂等记录课时完成并触发 XP、模块/完课奖励与连胜级联
// @Tags 进度
// @Accept  json
// @Produce  json
// @Param   body body ProgressRequest true "进度参数"
// @Success 200 {object} util.Response{data=service.ProgressState}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无课程访问权"
// @Router /api/progress [post]
func (c *AccessController) HandleProgress(ctx *gin.Context) {
	var req ProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	if req.Website != "" {
		util.BadRequest(ctx, "Bot detected")
		return
	}

	email, errMsg := util.NormalizeEmail(req.Email)
	if errMsg != "" {
		util.BadRequest(ctx, errMsg)
		return
	}

	courseID := util.TruncateID(req.CourseID, 100)
	if courseID == "" {
		util.BadRequest(ctx, util.MissingField("course_id"))
		return
	}
	if !util.ValidSlug(courseID) {
		util.BadRequest(ctx, "Invalid course_id")
		return
	}

	var state *service.ProgressState
	var err error

	switch req.Action {
	case "get":
		state, err = c.ProgressService.Get(email, courseID, req.TotalLessons)

	case "complete":
		lessonID := util.TruncateID(req.LessonID, 100)
		if lessonID == "" {
			util.BadRequest(ctx, util.MissingField("lesson_id"))
			return
		}
		if !util.ValidSlug(lessonID) {
			util.BadRequest(ctx, "Invalid lesson_id")
			return
		}
		state, err = c.ProgressService.CompleteLesson(email, courseID, lessonID, req.ModuleLessonIDs, req.TotalLessons)

	default:
		util.BadRequest(ctx, "Invalid action (get|complete)")
		return
	}

	if err != nil {
		if errors.Is(err, util.ErrNoAccess) {
			util.Forbidden(ctx, "No access to this course")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, state)
}

// KnowledgeCheckRequest 知识检测答题上报
// swagger:model KnowledgeCheckRequest
type KnowledgeCheckRequest struct {
	Email         string `json:"email"`
	CourseID      string `json:"course_id"`
	LessonID      string `json:"lesson_id"`
	QuestionHash  string `json:"question_hash"`
	SelectedIndex int    `json:"selected_index"`
	Correct       bool   `json:"correct"`
	Website       string `json:"website"`
}

// RecordKnowledgeCheck godoc
// @Summary 上报知识检测答题
// @Description 幂等记录答题，首次答对按题奖励 XP
// @Tags 进度
// @Accept  json
// @Produce  json
// @Param   body body KnowledgeCheckRequest true "答题参数"
// @Success 200 {object} util.Response{data=service.KCResult}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无课程访问权"
// @Router /api/kc [post]
func (c *AccessController) RecordKnowledgeCheck(ctx *gin.Context) {
	var req KnowledgeCheckRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	if req.Website != "" {
		util.BadRequest(ctx, "Bot detected")
		return
	}

	email, errMsg := util.NormalizeEmail(req.Email)
	if errMsg != "" {
		util.BadRequest(ctx, errMsg)
		return
	}

	courseID := util.TruncateID(req.CourseID, 100)
	lessonID := util.TruncateID(req.LessonID, 100)
	if courseID == "" {
		util.BadRequest(ctx, util.MissingField("course_id"))
		return
	}
	if lessonID == "" {
		util.BadRequest(ctx, util.MissingField("lesson_id"))
		return
	}
	if !util.ValidSlug(courseID) {
		util.BadRequest(ctx, "Invalid course_id")
		return
	}
	if !util.ValidSlug(lessonID) {
		util.BadRequest(ctx, "Invalid lesson_id")
		return
	}
	if !util.ValidQuestionHash(req.QuestionHash) {
		util.BadRequest(ctx, "Invalid question_hash")
		return
	}
	if req.SelectedIndex < 0 || req.SelectedIndex > 9 {
		util.BadRequest(ctx, "Invalid selected_index")
		return
	}

	result, err := c.ProgressService.RecordKnowledgeCheck(email, courseID, lessonID, req.QuestionHash, req.SelectedIndex, req.Correct)
	if err != nil {
		if errors.Is(err, util.ErrNoAccess) {
			util.Forbidden(ctx, "No access to this course")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// StatsRequest 个人统计查询
// swagger:model StatsRequest
type StatsRequest struct {
	Email    string `json:"email"`
	CourseID string `json:"course_id"`
	Website  string `json:"website"`
}

// GetStats godoc
// @Summary 个人统计
// @Description 总 XP、连胜、等级与可选的课程内排名
// @Tags 统计
// @Accept  json
// @Produce  json
// @Param   body body StatsRequest true "查询参数"
// @Success 200 {object} util.Response{data=service.UserStats}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/stats [post]
func (c *AccessController) GetStats(ctx *gin.Context) {
	var req StatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	if req.Website != "" {
		util.BadRequest(ctx, "Bot detected")
		return
	}

	email, errMsg := util.NormalizeEmail(req.Email)
	if errMsg != "" {
		util.BadRequest(ctx, errMsg)
		return
	}

	courseID := util.TruncateID(req.CourseID, 100)
	if courseID != "" && !util.ValidSlug(courseID) {
		util.BadRequest(ctx, "Invalid course_id")
		return
	}

	stats, err := c.StatsService.Stats(email, courseID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, stats)
}

// LeaderboardRequest 课程排行榜查询
// swagger:model LeaderboardRequest
type LeaderboardRequest struct {
	CourseID string `json:"course_id"`
}

// GetLeaderboard godoc
// @Summary 课程排行榜
// @Description 按总 XP 取前十，邮箱只以短哈希形式出现
// @Tags 统计
// @Accept  json
// @Produce  json
// @Param   body body LeaderboardRequest true "查询参数"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/leaderboard [post]
func (c *AccessController) GetLeaderboard(ctx *gin.Context) {
	var req LeaderboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	courseID := util.TruncateID(req.CourseID, 100)
	if courseID == "" {
		util.BadRequest(ctx, util.MissingField("course_id"))
		return
	}
	if !util.ValidSlug(courseID) {
		util.BadRequest(ctx, "Invalid course_id")
		return
	}

	board, err := c.StatsService.Top10(ctx.Request.Context(), courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, board)
}

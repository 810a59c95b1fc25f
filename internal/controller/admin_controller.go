package controller

import (
	"errors"

	"gravel_course_backend/internal/service"
	"gravel_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AccessService    *service.AccessService
	DashboardService *service.DashboardService
	NudgeService     *service.NudgeService
	XPService        *service.XPService
}

func NewAdminController(accessService *service.AccessService, dashboardService *service.DashboardService, nudgeService *service.NudgeService, xpService *service.XPService) *AdminController {
	return &AdminController{
		AccessService:    accessService,
		DashboardService: dashboardService,
		NudgeService:     nudgeService,
		XPService:        xpService,
	}
}

// GetDashboard godoc
// @Summary 运营面板
// @Description 收入、活跃、连胜、课程健康度与答题正确率的聚合视图
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.Dashboard}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/admin/dashboard [post]
func (c *AdminController) GetDashboard(ctx *gin.Context) {
	dash, err := c.DashboardService.Build()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dash)
}

// GrantAccessRequest 人工开通请求，退款重开、客服补单等场景用
// swagger:model GrantAccessRequest
type GrantAccessRequest struct {
	Email       string `json:"email"`
	CourseID    string `json:"course_id"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// GrantAccess godoc
// @Summary 人工开通课程
// @Description 跳过支付流程直接授予访问权，幂等
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body GrantAccessRequest true "开通参数"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/admin/grant [post]
func (c *AdminController) GrantAccess(ctx *gin.Context) {
	var req GrantAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
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

	if err := c.AccessService.Grant(email, courseID, "", req.AmountCents, req.Currency); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"granted": true, "email": email, "course_id": courseID})
}

// ReconcileXPRequest XP 对账请求
// swagger:model ReconcileXPRequest
type ReconcileXPRequest struct {
	Email string `json:"email"`
}

// ReconcileXP godoc
// @Summary 重算用户 XP 缓存
// @Description 以 XP 台账为准重算 users.total_xp，返回重算后的值
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ReconcileXPRequest true "对账参数"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/reconcile [post]
func (c *AdminController) ReconcileXP(ctx *gin.Context) {
	var req ReconcileXPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid JSON body")
		return
	}

	email, errMsg := util.NormalizeEmail(req.Email)
	if errMsg != "" {
		util.BadRequest(ctx, errMsg)
		return
	}

	totalXP, err := c.XPService.ReconcileByEmail(email)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, "User not found")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"email": email, "total_xp": totalXP})
}

// RunNudges godoc
// @Summary 手动触发 nudge 扫描
// @Description 与每日定时任务同一条路径，返回本轮各类计数
// @Tags 管理
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.RunSummary}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/admin/nudges/run [post]
func (c *AdminController) RunNudges(ctx *gin.Context) {
	summary := c.NudgeService.Run()
	util.Success(ctx, summary)
}

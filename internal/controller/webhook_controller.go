package controller

import (
	"errors"
	"io"

	"gravel_course_backend/internal/service"
	"gravel_course_backend/internal/util"
	"gravel_course_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 签名要对原始字节计算，这里不能走 ShouldBindJSON
type WebhookController struct {
	WebhookService *service.WebhookService
}

func NewWebhookController(webhookService *service.WebhookService) *WebhookController {
	return &WebhookController{WebhookService: webhookService}
}

// HandleStripeWebhook godoc
// @Summary Stripe 支付回调
// @Description 验签后处理 checkout.session.completed，幂等授予课程访问权
// @Tags 回调
// @Accept  json
// @Produce  json
// @Success 200 {object} util.Response{data=service.WebhookResult}
// @Failure 400 {object} util.Response "载荷缺关键字段"
// @Failure 401 {object} util.Response "签名校验失败"
// @Router /api/webhook [post]
func (c *WebhookController) HandleStripeWebhook(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		util.BadRequest(ctx, "Failed to read request body")
		return
	}

	header := ctx.GetHeader("Stripe-Signature")
	if err := c.WebhookService.VerifySignature(body, header); err != nil {
		logger.Log.Warn("Webhook signature rejected", zap.Error(err))
		util.Unauthorized(ctx)
		return
	}

	result, err := c.WebhookService.HandleEvent(body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookNoEmail):
			util.BadRequest(ctx, "Missing customer email")
		case errors.Is(err, service.ErrWebhookNoCourse):
			util.BadRequest(ctx, "Could not determine course")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

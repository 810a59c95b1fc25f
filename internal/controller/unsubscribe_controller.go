package controller

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"gravel_course_backend/internal/service"
	"gravel_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UnsubscribeController 处理邮件里的退订链接。
// 点击来自邮件客户端，返回 HTML 页面而不是 JSON 信封。
type UnsubscribeController struct {
	AccessService *service.AccessService
}

func NewUnsubscribeController(accessService *service.AccessService) *UnsubscribeController {
	return &UnsubscribeController{AccessService: accessService}
}

func unsubscribePage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; max-width: 480px; margin: 80px auto; text-align: center;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(title), html.EscapeString(message))
}

// Unsubscribe godoc
// @Summary 退订 nudge 邮件
// @Description 校验 HMAC 令牌后标记退订，返回 HTML 页面
// @Tags 退订
// @Produce  html
// @Param   email query string true "用户邮箱"
// @Param   token query string true "退订令牌"
// @Success 200 {string} string "退订成功页"
// @Failure 400 {string} string "链接不完整"
// @Router /api/unsubscribe [get]
func (c *UnsubscribeController) Unsubscribe(ctx *gin.Context) {
	rawEmail := ctx.Query("email")
	token := ctx.Query("token")
	if rawEmail == "" || token == "" {
		ctx.Data(http.StatusBadRequest, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Invalid link", "This unsubscribe link is incomplete. Please use the link from your email.")))
		return
	}

	email, errMsg := util.NormalizeEmail(rawEmail)
	if errMsg != "" {
		ctx.Data(http.StatusBadRequest, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Invalid link", "This unsubscribe link is not valid.")))
		return
	}

	err := c.AccessService.Unsubscribe(email, token)
	switch {
	case errors.Is(err, util.ErrInvalidSignature):
		ctx.Data(http.StatusBadRequest, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Invalid link", "This unsubscribe link is not valid. Please use the link from your email.")))
	case errors.Is(err, util.ErrUserNotFound):
		ctx.Data(http.StatusNotFound, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Not found", "We couldn't find an account for this email address.")))
	case err != nil:
		ctx.Data(http.StatusInternalServerError, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Something went wrong", "Please try again later.")))
	default:
		ctx.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte(unsubscribePage("Unsubscribed", "You won't receive any more reminder emails from us. You can keep using the course as usual.")))
	}
}

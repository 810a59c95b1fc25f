package middleware

import (
	"crypto/subtle"
	"strings"

	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// OriginGuard 只放行 Origin 在白名单内的请求，缺失 Origin 一样拒绝
func OriginGuard(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; !ok {
			util.Forbidden(c, "Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminAuth 管理接口的 Bearer 校验，常量时间比较防时序侧信道
func AdminAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if cfg.Admin.APIKey == "" || token == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Admin.APIKey)) != 1 {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Next()
	}
}

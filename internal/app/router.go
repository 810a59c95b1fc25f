package app

import (
	"gravel_course_backend/docs"
	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/middleware"
	"gravel_course_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 探活不带 Origin，放在白名单之外
	router.GET("/api/health", c.health.HealthCheck)

	// 1. 公共路由：课程前端直接调用，带 Origin 白名单
	public := router.Group("/api")
	public.Use(middleware.OriginGuard(cfg.CORS.AllowedOrigins))
	{
		public.POST("/verify", c.access.VerifyAccess)
		public.POST("/progress", c.access.HandleProgress)
		public.POST("/kc", c.access.RecordKnowledgeCheck)
		public.POST("/stats", c.access.GetStats)
		public.POST("/leaderboard", c.access.GetLeaderboard)
	}

	// 2. 回调与退订：来源不是浏览器，跳过 Origin 检查
	router.POST("/api/webhook", c.webhook.HandleStripeWebhook)
	router.GET("/api/unsubscribe", c.unsubscribe.Unsubscribe)

	// 3. 管理接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AdminAuth(cfg))
	{
		admin.POST("/dashboard", c.admin.GetDashboard)
		admin.POST("/grant", c.admin.GrantAccess)
		admin.POST("/nudges/run", c.admin.RunNudges)
		admin.POST("/reconcile", c.admin.ReconcileXP)
	}
}

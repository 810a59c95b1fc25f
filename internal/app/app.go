package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gravel_course_backend/internal/config"
	"gravel_course_backend/internal/controller"
	"gravel_course_backend/internal/repository"
	"gravel_course_backend/internal/scheduler"
	"gravel_course_backend/internal/service"
	"gravel_course_backend/pkg/database"
	"gravel_course_backend/pkg/logger"
	"gravel_course_backend/pkg/monitoring"
	"gravel_course_backend/pkg/security"
	"gravel_course_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	scheduler *scheduler.Scheduler
}

type repositories struct {
	user       *repository.UserRepository
	enrollment *repository.EnrollmentRepository
	progress   *repository.ProgressRepository
	kc         *repository.KnowledgeCheckRepository
	xp         *repository.XPRepository
	streak     *repository.StreakRepository
	nudge      *repository.NudgeRepository
	dashboard  *repository.DashboardRepository
}

type services struct {
	email     *service.EmailService
	xp        *service.XPService
	streak    *service.StreakService
	access    *service.AccessService
	progress  *service.ProgressService
	stats     *service.StatsService
	webhook   *service.WebhookService
	nudge     *service.NudgeService
	dashboard *service.DashboardService
}

type controllers struct {
	access      *controller.AccessController
	admin       *controller.AdminController
	webhook     *controller.WebhookController
	unsubscribe *controller.UnsubscribeController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		enrollment: repository.NewEnrollmentRepository(db),
		progress:   repository.NewProgressRepository(db),
		kc:         repository.NewKnowledgeCheckRepository(db),
		xp:         repository.NewXPRepository(db),
		streak:     repository.NewStreakRepository(db),
		nudge:      repository.NewNudgeRepository(db),
		dashboard:  repository.NewDashboardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.email = service.NewEmailService(&cfg.Email)
	s.xp = service.NewXPService(repos.xp, repos.user)
	s.streak = service.NewStreakService(repos.user, repos.streak)
	s.access = service.NewAccessService(repos.user, repos.enrollment, cfg)
	s.progress = service.NewProgressService(db, repos.user, repos.enrollment, repos.progress, repos.kc, s.xp, s.streak)
	s.stats = service.NewStatsService(repos.user, rdb)
	s.webhook = service.NewWebhookService(repos.user, repos.enrollment, s.email, cfg)
	s.nudge = service.NewNudgeService(repos.user, repos.enrollment, repos.progress, repos.xp, repos.nudge, s.email, cfg)
	s.dashboard = service.NewDashboardService(repos.dashboard, repos.streak, repos.nudge)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		access:      controller.NewAccessController(s.access, s.progress, s.stats),
		admin:       controller.NewAdminController(s.access, s.dashboard, s.nudge, s.xp),
		webhook:     controller.NewWebhookController(s.webhook),
		unsubscribe: controller.NewUnsubscribeController(s.access),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 300
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// release 模式下默认不自动迁移，需显式 --migrate
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 只承载排行榜缓存，连接失败降级运行
		logger.Log.Warn("Redis unavailable, leaderboard cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-access", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.scheduler = scheduler.NewScheduler(services.nudge, cfg.Nudge.RunAt)
	if err := app.scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start nudge scheduler", zap.Error(err))
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

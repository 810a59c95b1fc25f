package scheduler

import (
	"time"

	"gravel_course_backend/internal/service"
	"gravel_course_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler 每日定时跑一轮 nudge 扫描。时间统一按 UTC，
// 与日期字段的时区语义保持一致。
type Scheduler struct {
	scheduler *gocron.Scheduler
	nudges    *service.NudgeService
	runAt     string
}

func NewScheduler(nudges *service.NudgeService, runAt string) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		nudges:    nudges,
		runAt:     runAt,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(s.runAt).Do(func() {
		logger.Log.Info("Scheduled nudge run starting")
		s.nudges.Run()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	logger.Log.Info("Nudge scheduler started", zap.String("run_at", s.runAt))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

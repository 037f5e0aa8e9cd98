package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PackageScheduler то, что умеет раскрыть правила всех действующих пакетов
type PackageScheduler interface {
	ScheduleAllActive(ctx context.Context, at time.Time) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	packages PackageScheduler
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(packages PackageScheduler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		packages: packages,
		interval: interval,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runRescheduleTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего прохода
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runRescheduleTask периодически догенерирует занятия по всем действующим пакетам
func (s *Scheduler) runRescheduleTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.reschedule(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reschedule(ctx)
		case <-s.stopChan:
			s.logger.Info("Reschedule task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Reschedule task cancelled")
			return
		}
	}
}

func (s *Scheduler) reschedule(ctx context.Context) {
	s.logger.Info("Starting automatic session scheduling")

	created, err := s.packages.ScheduleAllActive(ctx, s.now())
	if err != nil {
		s.logger.Error("Failed to schedule active packages", zap.Error(err))
		return
	}

	s.logger.Info("Automatic session scheduling completed", zap.Int("sessions_created", created))
}

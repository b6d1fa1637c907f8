package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	syncapp "github.com/posvenda/backend/internal/application/sync"
	"github.com/posvenda/backend/internal/infrastructure/config"
)

// SyncRunner executes a detailed synchronization run.
type SyncRunner interface {
	RunDetailed(ctx context.Context, req syncapp.Request) (*syncapp.Result, error)
}

// DailySyncScheduler triggers a full synchronization of the previous
// day's service orders once per day at a configured local time.
type DailySyncScheduler struct {
	runner    SyncRunner
	logger    *zap.Logger
	location  *time.Location
	hour      int
	minute    int
	pageSize  int
	relations []string

	checkInterval time.Duration

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	syncActive  bool
	lastRunDate string
}

// NewDailySyncScheduler creates a scheduler from configuration. The
// config must already be validated, so daily_at and timezone parse.
func NewDailySyncScheduler(cfg config.SchedulerConfig, runner SyncRunner, logger *zap.Logger) (*DailySyncScheduler, error) {
	at, err := time.Parse("15:04", cfg.DailyAt)
	if err != nil {
		return nil, err
	}
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &DailySyncScheduler{
		runner:        runner,
		logger:        logger,
		location:      location,
		hour:          at.Hour(),
		minute:        at.Minute(),
		pageSize:      cfg.PageSize,
		relations:     cfg.Relations,
		checkInterval: 20 * time.Second,
	}, nil
}

// Start launches the background trigger loop.
func (s *DailySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("daily sync scheduler started",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
		zap.String("timezone", s.location.String()))

	return nil
}

// Stop halts the trigger loop and waits for it to exit.
func (s *DailySyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("daily sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *DailySyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

func (s *DailySyncScheduler) checkAndTrigger(ctx context.Context) {
	s.triggerAt(ctx, time.Now().In(s.location))
}

func (s *DailySyncScheduler) triggerAt(ctx context.Context, now time.Time) {
	currentDate := now.Format("2006-01-02")

	s.mu.Lock()
	alreadyRan := s.lastRunDate == currentDate
	active := s.syncActive
	s.mu.Unlock()
	if alreadyRan {
		return
	}

	if now.Hour() != s.hour || now.Minute() != s.minute {
		return
	}

	if active {
		// Previous run still going. Leave lastRunDate untouched so a
		// long run does not permanently swallow today's slot.
		s.logger.Warn("skipping scheduled sync: previous run still active")
		return
	}

	s.mu.Lock()
	s.lastRunDate = currentDate
	s.syncActive = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.syncActive = false
			s.mu.Unlock()
		}()
		s.runSync(ctx, now)
	}()
}

// runSync imports every order from the previous local day.
func (s *DailySyncScheduler) runSync(ctx context.Context, now time.Time) {
	yesterday := now.AddDate(0, 0, -1)
	dayStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, s.location)

	s.logger.Info("starting scheduled sync",
		zap.String("date", dayStart.Format("2006-01-02")))

	started := time.Now()
	result, err := s.runner.RunDetailed(ctx, syncapp.Request{
		DateFrom:  dayStart,
		DateTo:    dayStart,
		PageSize:  s.pageSize,
		Relations: s.relations,
	})
	if err != nil {
		s.logger.Error("scheduled sync failed",
			zap.String("date", dayStart.Format("2006-01-02")),
			zap.Error(err))
		return
	}

	s.logger.Info("scheduled sync finished",
		zap.String("date", dayStart.Format("2006-01-02")),
		zap.Int64("listed", result.Listed),
		zap.Int64("saved", result.Saved),
		zap.Duration("took", time.Since(started)))
}

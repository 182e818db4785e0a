package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jobrunner/envmap/internal/domain"
)

// ErrRateLimited is returned when a manual reload is triggered too often.
var ErrRateLimited = errors.New("rate limit exceeded")

// ReloadCooldown is the minimum time between two manual reloads.
const ReloadCooldown = 30 * time.Second

// Loader is implemented by services that reload all layers.
type Loader interface {
	LoadAll(ctx context.Context) (*domain.LoadReport, error)
}

// ReloadService reloads layers periodically and on demand.
type ReloadService struct {
	loader   Loader
	interval time.Duration
	logger   *slog.Logger

	// Lifecycle management
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// Rate limiting for manual triggers
	lastTrigger time.Time
	triggerMu   sync.Mutex

	// Prevents concurrent reloads
	reloadMu sync.Mutex

	nextReload time.Time
	nextMu     sync.RWMutex
}

// NewReloadService creates a new reload service. An interval of zero
// disables scheduled reloads; manual triggers still work.
func NewReloadService(loader Loader, interval time.Duration, logger *slog.Logger) *ReloadService {
	return &ReloadService{
		loader:   loader,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		// Allow an immediate first trigger
		lastTrigger: time.Now().Add(-ReloadCooldown - time.Second),
	}
}

// Start begins the periodic reload scheduler.
func (s *ReloadService) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("starting reload service", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *ReloadService) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextReload(time.Now().Add(s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reload service stopped: context canceled")
			return
		case <-s.stopCh:
			s.logger.Info("reload service stopped")
			return
		case <-ticker.C:
			s.logger.Debug("scheduled reload triggered")
			if _, err := s.Reload(ctx); err != nil {
				s.logger.Error("scheduled reload failed", "error", err)
			}
			s.setNextReload(time.Now().Add(s.interval))
		}
	}
}

// Stop gracefully stops the reload service.
func (s *ReloadService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping reload service")
		close(s.stopCh)
	})
	s.wg.Wait()
}

// TriggerReload reloads all layers on demand. It returns ErrRateLimited when
// called within ReloadCooldown of the previous trigger.
func (s *ReloadService) TriggerReload(ctx context.Context) (*domain.LoadReport, error) {
	s.triggerMu.Lock()
	if time.Since(s.lastTrigger) < ReloadCooldown {
		s.triggerMu.Unlock()
		return nil, ErrRateLimited
	}
	s.lastTrigger = time.Now()
	s.triggerMu.Unlock()

	return s.Reload(ctx)
}

// Reload reloads all layers without rate limiting. Concurrent calls are
// serialized.
func (s *ReloadService) Reload(ctx context.Context) (*domain.LoadReport, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	report, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("reload completed",
		"loaded", report.LoadedCount(),
		"failed", len(report.Failed()),
	)
	return report, nil
}

// NextReload returns the time of the next scheduled reload, zero when
// scheduling is disabled.
func (s *ReloadService) NextReload() time.Time {
	s.nextMu.RLock()
	defer s.nextMu.RUnlock()
	return s.nextReload
}

func (s *ReloadService) setNextReload(t time.Time) {
	s.nextMu.Lock()
	defer s.nextMu.Unlock()
	s.nextReload = t
}

// Interval returns the reload interval.
func (s *ReloadService) Interval() time.Duration {
	return s.interval
}

package remind

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReminderStore is the persistence surface the scheduler polls.
type ReminderStore interface {
	// DueReminders returns unsent reminders with FireAt <= now.
	DueReminders(ctx context.Context, now time.Time) ([]Reminder, error)
	// MarkSent flips a reminder to sent. It returns false when the
	// reminder was already sent, guaranteeing exactly-once delivery.
	MarkSent(ctx context.Context, id string) (bool, error)
}

// Notifier delivers a fired reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// Scheduler polls the store and delivers due reminders in the
// background. All public methods are safe for concurrent use.
type Scheduler struct {
	store    ReminderStore
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithPollInterval sets the polling interval. Defaults to 30 seconds.
func WithPollInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

// NewScheduler creates a scheduler. Call Start to begin polling.
func NewScheduler(store ReminderStore, notifier Notifier, logger *zap.Logger, opts ...SchedulerOption) (*Scheduler, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	s := &Scheduler{
		store:    store,
		notifier: notifier,
		interval: 30 * time.Second,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins background delivery. Calling Start on a running
// scheduler returns an error without starting a second goroutine.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	// Fresh stop channel per run so Stop/Start cycles work.
	s.stopCh = make(chan struct{})
	s.running = true

	s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval))
	go s.run()
	return nil
}

// Stop signals the background goroutine to exit. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Debug("scheduler stop called but not running")
		return nil
	}

	s.logger.Info("stopping reminder scheduler")
	s.running = false
	close(s.stopCh)
	return nil
}

func (s *Scheduler) run() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler goroutine panicked, recovering",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.safeDeliverDue()
		case <-s.stopCh:
			s.logger.Debug("scheduler received stop signal")
			return
		}
	}
}

func (s *Scheduler) safeDeliverDue() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("delivery run panicked, continuing scheduler",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	s.DeliverDue(context.Background(), time.Now())
}

// DeliverDue delivers every reminder due at now. Each reminder is
// marked sent before notification so a retried poll never delivers it
// twice; a failed notification is logged, not retried.
func (s *Scheduler) DeliverDue(ctx context.Context, now time.Time) {
	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		s.logger.Error("failed to load due reminders", zap.Error(err))
		return
	}

	for _, r := range due {
		claimed, err := s.store.MarkSent(ctx, r.ID)
		if err != nil {
			s.logger.Error("failed to mark reminder sent",
				zap.String("id", r.ID),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.notifier.Notify(ctx, r); err != nil {
			s.logger.Error("reminder notification failed",
				zap.String("id", r.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("reminder delivered",
			zap.String("id", r.ID),
			zap.Time("fire_at", r.FireAt),
		)
	}
}

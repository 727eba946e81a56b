package remind

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// LogNotifier delivers reminders to the application log. It is the
// default delivery channel when no external one is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) (*LogNotifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &LogNotifier{logger: logger}, nil
}

// Notify writes the reminder to the log.
func (n *LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.logger.Info("reminder fired",
		zap.String("id", r.ID),
		zap.String("message", r.Message),
		zap.Time("fire_at", r.FireAt),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)

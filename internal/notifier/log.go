package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amishk599/jobfloor/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier records each notification as a "notification" activity entry
// and echoes it to the logger.
type LogNotifier struct {
	logs   model.LogStore
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that writes to logs and logger.
func NewLogNotifier(logs model.LogStore, logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logs: logs, logger: logger}
}

// Notify appends the activity entry. The error is the store's.
func (n *LogNotifier) Notify(ctx context.Context, trackerName, message string) error {
	if err := n.logs.AppendLog(ctx, model.LogEntry{
		TrackerName: trackerName,
		LogType:     model.LogTypeNotification,
		Message:     message,
	}); err != nil {
		return fmt.Errorf("recording notification for %s: %w", trackerName, err)
	}
	n.logger.Info("notification", "tracker", trackerName, "message", message)
	return nil
}

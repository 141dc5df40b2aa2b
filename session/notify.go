package session

import (
	"context"

	"github.com/go-logr/logr"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is a user-visible message about a mutation or the
// session's reload state.
type Notification struct {
	Level   Level
	Message string
	Detail  string
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification)
}

type NotifierFunc func(ctx context.Context, notification Notification)

func (f NotifierFunc) Notify(ctx context.Context, notification Notification) {
	f(ctx, notification)
}

// LogNotifier writes notifications to the context logger.
func LogNotifier() Notifier {
	return NotifierFunc(func(ctx context.Context, notification Notification) {
		logger := logr.FromContextOrDiscard(ctx)
		keysAndValues := []any{"level", notification.Level.String()}
		if notification.Detail != "" {
			keysAndValues = append(keysAndValues, "detail", notification.Detail)
		}
		logger.Info(notification.Message, keysAndValues...)
	})
}

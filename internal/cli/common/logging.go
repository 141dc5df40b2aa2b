package common

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/crmarques/mgmtbridge/session"
)

// NewLogger writes to w. --verbose enables V(1) and --debug V(2), which
// carries every management request and response.
func NewLogger(w io.Writer, flags *GlobalFlags) logr.Logger {
	verbosity := 0
	if flags != nil {
		switch {
		case flags.Debug:
			verbosity = 2
		case flags.Verbose:
			verbosity = 1
		}
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{Verbosity: verbosity})
}

// WithLogger stores the command logger in ctx.
func WithLogger(ctx context.Context, w io.Writer, flags *GlobalFlags) context.Context {
	return logr.NewContext(ctx, NewLogger(w, flags))
}

// NewStatusNotifier prints session notifications to w. Informational
// notices are dropped under --no-status; warnings and errors never are.
func NewStatusNotifier(w io.Writer, flags *GlobalFlags) session.Notifier {
	quiet := flags != nil && flags.NoStatus
	return session.NotifierFunc(func(_ context.Context, notification session.Notification) {
		if quiet && notification.Level == session.LevelInfo {
			return
		}
		line := fmt.Sprintf("[%s] %s", strings.ToUpper(notification.Level.String()), notification.Message)
		if notification.Detail != "" {
			line += ": " + notification.Detail
		}
		_, _ = fmt.Fprintln(w, line)
	})
}

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Log lines carry a centisecond clock, e.g. "14:32:01.45".
const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// step times one phase of a command (resolve, download, install) and
// reports it when the phase ends. Not for concurrent use.
type step struct {
	logger *log.Logger
	began  time.Time
}

// beginStep starts timing with the logger attached to ctx.
func beginStep(ctx context.Context) *step {
	return &step{logger: loggerFromContext(ctx), began: time.Now()}
}

// donef logs e.g. "Resolved 42 dependencies (1.234s)".
func (s *step) donef(format string, args ...any) {
	elapsed := time.Since(s.began).Round(time.Millisecond)
	s.logger.Info(fmt.Sprintf(format, args...) + " (" + elapsed.String() + ")")
}

type loggerCtxKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// loggerFromContext falls back to log.Default() when no logger is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}

// debugf adapts l to the printf-style callbacks the library packages take.
func debugf(l *log.Logger) func(string, ...any) {
	return func(format string, args ...any) { l.Debugf(format, args...) }
}

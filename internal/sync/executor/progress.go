package executor

import (
	"log/slog"
)

// logTracker logs transfer progress at debug level in quarter steps.
type logTracker struct {
	logger *slog.Logger
	name   string
	step   int64
}

func newLogTracker(logger *slog.Logger, name string) *logTracker {
	return &logTracker{logger: logger, name: name}
}

func (l *logTracker) Update(transferred, total int64) {
	if total <= 0 {
		return
	}
	step := transferred * 4 / total
	if step > l.step {
		l.step = step
		l.logger.Debug("transfer progress", "path", l.name, "bytes", transferred, "total", total)
	}
}

func (l *logTracker) Complete() {}

func (l *logTracker) Error(err error) {
	l.logger.Debug("transfer failed", "path", l.name, "error", err)
}

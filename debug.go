package storage

import (
	"context"

	"github.com/sirupsen/logrus"
)

type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

func newLogger(enabled bool, serviceName string) *logger {
	return &logger{
		entry:           logrus.WithField("storage", serviceName),
		debuggerEnabled: enabled,
	}
}

func (l *logger) debug(ctx context.Context, s string, args ...interface{}) {
	if l == nil || !l.debuggerEnabled || l.entry == nil {
		return
	}
	l.entry.WithContext(ctx).Debugf(s, args...)
}

// warn is always logged; the cache falling over should be visible even with the debugger off
func (l *logger) warn(ctx context.Context, err error, s string, args ...interface{}) {
	if l == nil || l.entry == nil {
		return
	}
	l.entry.WithContext(ctx).WithError(err).Warnf(s, args...)
}

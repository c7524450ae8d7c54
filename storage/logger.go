package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jonwraymond/rpccache/observe"
)

// gormLogger routes gorm's logging through observe.Logger. Query errors are
// logged at debug only; apierr.FromStorage reports the ones that matter.
type gormLogger struct {
	logger observe.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

func newGormLogger(l observe.Logger, slow time.Duration) *gormLogger {
	return &gormLogger{logger: l, level: gormlogger.Warn, slow: slow}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logger.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logger.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logger.Error(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		g.logger.Debug(ctx, "query failed",
			observe.F("sql", sql),
			observe.F("rows", rows),
			observe.F("duration_ms", elapsed.Milliseconds()),
			observe.F("error", err),
		)
	case g.slow > 0 && elapsed > g.slow && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logger.Warn(ctx, "slow query",
			observe.F("sql", sql),
			observe.F("rows", rows),
			observe.F("duration_ms", elapsed.Milliseconds()),
		)
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logger.Debug(ctx, "query",
			observe.F("sql", sql),
			observe.F("rows", rows),
			observe.F("duration_ms", elapsed.Milliseconds()),
		)
	}
}

var _ gormlogger.Interface = (*gormLogger)(nil)

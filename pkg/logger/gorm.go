package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes GORM output through slog
type GormLogger struct {
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
	// IgnoreRecordNotFound keeps First() misses out of the error log; the
	// repositories translate them into not-found errors themselves.
	IgnoreRecordNotFound bool
}

func NewGormLogger(logLevel gormlogger.LogLevel, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{
		LogLevel:             logLevel,
		SlowThreshold:        slowThreshold,
		IgnoreRecordNotFound: true,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.LogLevel = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		Log.InfoContext(ctx, fmt.Sprintf(msg, data...), slog.String("component", "gorm"))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		Log.WarnContext(ctx, fmt.Sprintf(msg, data...), slog.String("component", "gorm"))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		Log.ErrorContext(ctx, fmt.Sprintf(msg, data...), slog.String("component", "gorm"))
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	attrs := []any{
		slog.String("component", "gorm"),
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}

	switch {
	case err != nil && l.LogLevel >= gormlogger.Error && !(l.IgnoreRecordNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)):
		attrs = append(attrs, slog.String("error", err.Error()))
		Log.ErrorContext(ctx, "SQL error", attrs...)
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn:
		Log.WarnContext(ctx, "Slow SQL", attrs...)
	case l.LogLevel >= gormlogger.Info:
		Log.DebugContext(ctx, "SQL", attrs...)
	}
}

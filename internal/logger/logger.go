package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var current atomic.Pointer[slog.Logger]

// Init настраивает глобальный логгер по окружению:
// development - текст и debug, test - без вывода, иначе JSON в stdout
func Init(env string, level ...string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level...)}

	var handler slog.Handler
	switch env {
	case "development":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "test":
		handler = slog.NewTextHandler(io.Discard, opts)
	default:
		opts.AddSource = true
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	l := slog.New(handler).With(slog.String("service", "seribro"))
	current.Store(l)
	slog.SetDefault(l)
}

func parseLevel(level ...string) slog.Level {
	if len(level) == 0 {
		return slog.LevelInfo
	}
	var lvl slog.Level
	// debug/info/warn/error; неизвестное значение - info
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(level[0])))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// GetLogger - логгер из Init, до Init используется slog.Default()
func GetLogger() *slog.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { GetLogger().Error(msg, args...) }

// Fatal пишет ошибку и завершает процесс
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

func WithError(err error) *slog.Logger {
	if err == nil {
		return GetLogger()
	}
	return GetLogger().With(slog.String("error", err.Error()))
}

// WorkerLog - итог одного прохода фонового воркера.
// Пустые проходы пишутся только в debug.
func WorkerLog(worker, operation string, affected int64, err error) {
	l := GetLogger().With(
		slog.String("worker", worker),
		slog.String("operation", operation),
		slog.Int64("affected", affected),
	)
	switch {
	case err != nil:
		l.Error("Worker operation failed", slog.String("error", err.Error()))
	case affected > 0:
		l.Info("Worker operation completed")
	default:
		l.Debug("Worker operation completed")
	}
}

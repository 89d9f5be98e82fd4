package logging

import (
	"context"
	"io"
	"log/slog"
	"math/big"
)

// Logger 是求解器用到的 slog 子集。接口保持很小，方便调用方替换成自己的实现。
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// New 用给定的 slog.Logger 构造 Logger，nil 时绑定 slog.Default()
func New(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

// Nop 返回丢弃所有输出的 Logger
func Nop() Logger {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// OrNop 在 l 为 nil 时返回 Nop()
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop()
	}
	return l
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

// Int 把大整数记成十进制字符串属性，nil 记为 "<nil>"
func Int(key string, v *big.Int) slog.Attr {
	if v == nil {
		return slog.String(key, "<nil>")
	}
	return slog.String(key, v.String())
}

// ParseLevel 把配置里的级别名转成 slog.Level，无法识别时返回 slog.LevelWarn
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// Package logger wraps zerolog with context-scoped fields. Handlers and
// services enrich the context once and every log line downstream carries the
// accumulated fields.
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/floragems/floragems-backend/pkg/env"
	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
}

type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

// New builds a JSON logger tagged with the service name. Setting
// LOG_FORMAT=console switches to human-readable output for local work.
func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stdout
	}
	if env.Get("LOG_FORMAT", "json") == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.
		New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)

	return &Logger{
		base:      &base,
		warnStack: opts.WarnStack,
	}
}

// ParseLevel maps a config string to a zerolog level, defaulting to info on
// anything unrecognized.
func ParseLevel(value string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(name); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return l.base
	}
	if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return entry
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, entry zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, &entry)
}

// WithField returns a context whose log lines include the given field.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.attach(ctx, l.fromContext(ctx).With().Interface(key, value).Logger())
}

// WithFields returns a context whose log lines include all given fields.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	builder := l.fromContext(ctx).With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}
	return l.attach(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.fromContext(ctx).Info().Msg(msg)
}

// Warn logs at warn level, attaching a stack trace when WarnStack is on.
func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.fromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error logs at error level. Error lines always carry a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}

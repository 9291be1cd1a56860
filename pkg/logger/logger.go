package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gocart/storefront/pkg/env"
)

// Field names shared by every storefront log line.
const (
	FieldRequestID  = "request_id"
	FieldConsumerID = "consumer_id"
	FieldVendorID   = "vendor_id"
	FieldOrderID    = "order_id"
	FieldActorRole  = "actor_role"
	FieldStack      = "stack"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
}

// Logger writes JSON lines through zerolog. Request-scoped fields ride on the
// context; every method is a no-op on a nil *Logger.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	level := opts.Level
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	// LOG_FORMAT=console is for local runs.
	if env.Get("LOG_FORMAT", "json") == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return &Logger{
		base:      zerolog.New(out).Level(level).With().Timestamp().Str("service", opts.ServiceName).Logger(),
		warnStack: opts.WarnStack,
	}
}

// ParseLevel maps a configured level string onto zerolog, falling back to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
			return scoped
		}
	}
	return l.base
}

func (l *Logger) with(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, fn(l.entry(ctx).With()).Logger())
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Interface(key, value) })
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Fields(fields) })
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldRequestID, requestID) })
}

func (l *Logger) WithConsumerID(ctx context.Context, consumerID string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldConsumerID, consumerID) })
}

func (l *Logger) WithVendorID(ctx context.Context, vendorID string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldVendorID, vendorID) })
}

func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldOrderID, orderID) })
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context { return c.Str(FieldActorRole, role) })
}

// WithAccount tags the authenticated caller: vendors under vendor_id, everyone
// else under consumer_id.
func (l *Logger) WithAccount(ctx context.Context, role, accountID string) context.Context {
	idField := FieldConsumerID
	if role == "vendor" {
		idField = FieldVendorID
	}
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str(FieldActorRole, role).Str(idField, accountID)
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	e := l.entry(ctx)
	e.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	e := l.entry(ctx)
	e.Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	if l == nil {
		return
	}
	e := l.entry(ctx)
	event := e.Warn()
	if l.warnStack {
		event = event.Str(FieldStack, stackTrace())
	}
	event.Msg(msg)
}

// Error always carries a stack trace.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	if l == nil {
		return
	}
	e := l.entry(ctx)
	e.Error().Err(err).Str(FieldStack, stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}

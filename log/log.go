// Package log provides preconfigured slog loggers and context plumbing
// shared by the transport, codec, and operation engine.
package log

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/golang-cz/devslog"
	conslog "github.com/phsym/console-slog"
	slogfmt "github.com/samber/slog-formatter"
)

var newHandler = slogfmt.NewFormatterHandler(
	slogfmt.ErrorFormatter("error"),
	slogfmt.FormatByType(func(req *http.Request) slog.Value {
		if req == nil {
			return slog.Value{}
		}
		return slog.GroupValue(
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		)
	}),
	slogfmt.FormatByType(func(resp *http.Response) slog.Value {
		if resp == nil {
			return slog.Value{}
		}
		return slog.GroupValue(
			slog.Int("status", resp.StatusCode),
			slog.String("proto", resp.Proto),
		)
	}),
)

var console = slog.New(newHandler(
	conslog.NewHandler(os.Stdout, &conslog.HandlerOptions{
		AddSource:  true,
		Level:      slog.LevelDebug,
		TimeFormat: time.RFC3339Nano,
	}),
))

// Console returns the logger configured for human-readable console output.
func Console() *slog.Logger { return console }

var develop = slog.New(newHandler(
	devslog.NewHandler(os.Stdout, &devslog.Options{
		HandlerOptions: &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		},
		SortKeys:   true,
		TimeFormat: time.RFC3339Nano,
	}),
))

// Develop returns the logger configured for extended development output,
// useful for inspecting the exact CIM-XML bodies exchanged on the wire.
func Develop() *slog.Logger { return develop }

var noop = slog.New(noopHandler{})

// Noop returns a logger that discards everything.
func Noop() *slog.Logger { return noop }

var _default atomic.Pointer[slog.Logger]

// Default returns the package-wide default logger. It starts out as [Noop].
func Default() *slog.Logger { return _default.Load() }

// SetDefault overwrites the package-wide default logger.
func SetDefault(l *slog.Logger) {
	if l == nil {
		l = noop
	}
	_default.Store(l)
}

func init() {
	_default.Store(noop)
}

type contextKey string

const loggerKey contextKey = "logger"

// ContextWithLogger returns a new context carrying logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or [Default] if none is set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return Default()
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (noopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h noopHandler) WithGroup(string) slog.Handler           { return h }

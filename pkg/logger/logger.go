package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// Logger is the structured logging interface used across the service.
// Arguments follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type Opts struct {
	Env       string
	SentryUrl string
}

type Impl struct {
	l *slog.Logger
}

var _ Logger = (*Impl)(nil)

func New(opts Opts) *Impl {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	level := slog.LevelInfo
	if opts.Env == "development" {
		zl = zl.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		slogzerolog.Option{Level: level, Logger: &zl}.NewZerologHandler(),
	}

	if opts.SentryUrl != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:           opts.SentryUrl,
			Environment:   opts.Env,
			EnableTracing: false,
		})
		if err != nil {
			zl.Warn().Err(err).Msg("Sentry init failed, continuing without it")
		} else {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	return &Impl{l: slog.New(slogmulti.Fanout(handlers...))}
}

func (i *Impl) Debug(msg string, args ...any) { i.l.Debug(msg, args...) }
func (i *Impl) Info(msg string, args ...any)  { i.l.Info(msg, args...) }
func (i *Impl) Warn(msg string, args ...any)  { i.l.Warn(msg, args...) }
func (i *Impl) Error(msg string, args ...any) { i.l.Error(msg, args...) }

func (i *Impl) With(args ...any) Logger {
	return &Impl{l: i.l.With(args...)}
}

// NewNop returns a logger that discards everything. Tests use it.
func NewNop() *Impl {
	return &Impl{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Printf satisfies fx.Printer so the fx app can log through us.
func (i *Impl) Printf(format string, args ...any) {
	i.l.Debug(fmt.Sprintf(format, args...))
}

package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup installs the global JSON logger. Every event logged with a context
// carrying a valid span gets trace_id and span_id fields.
func Setup(serviceName, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger().
		Hook(TraceHook{})

	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger
	logger.Info().Str("level", parsed.String()).Msg("Logger initialized")
	return logger
}

type TraceHook struct{}

func (TraceHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return
	}
	e.Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String())
}

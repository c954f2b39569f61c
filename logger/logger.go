package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to one component.
type Logger struct {
	zl        zerolog.Logger
	component string
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg *Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = outputWriter(cfg.Output)
	if f := strings.ToLower(cfg.Format); f == FormatConsole || f == FormatPretty {
		out = consoleWriter(cfg)
	}

	zc := zerolog.New(out).Level(level).With()
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Component returns the component the logger is bound to, if any.
func (l *Logger) Component() string { return l.component }

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger(), component: name}
}

// WithLevel returns a copy of l writing events at level and above.
func (l *Logger) WithLevel(level zerolog.Level) *Logger {
	return &Logger{zl: l.zl.Level(level), component: l.component}
}

// WithEvaluation returns a logger tagged with an evaluation id and mode.
func (l *Logger) WithEvaluation(evalID, mode string) *Logger {
	return &Logger{
		zl:        l.zl.With().Str(FieldEvalID, evalID).Str(FieldMode, mode).Logger(),
		component: l.component,
	}
}

// WithContext returns a logger enriched with the evaluation id and the
// trace/span ids stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.zl.With()
	for _, k := range []contextKey{evalIDKey, traceIDKey, spanIDKey} {
		if v := ctx.Value(k); v != nil {
			zc = zc.Str(string(k), fmt.Sprint(v))
		}
	}
	return &Logger{zl: zc.Logger(), component: l.component}
}

// DebugEnabled reports whether debug events would be written.
// Hot paths check it before building field maps.
func (l *Logger) DebugEnabled() bool {
	return l.zl.Debug().Enabled()
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { write(l.zl.Error(), msg, fields) }

func write(event *zerolog.Event, msg string, fields []map[string]any) {
	for _, fm := range fields {
		event.Fields(fm)
	}
	event.Msg(msg)
}

// contextKey is an unexported type for context keys to avoid collisions.
type contextKey string

const (
	evalIDKey  contextKey = FieldEvalID
	traceIDKey contextKey = FieldTraceID
	spanIDKey  contextKey = FieldSpanID
)

// ContextWithEvalID stores an evaluation id in ctx.
func ContextWithEvalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, evalIDKey, id)
}

// EvalIDFromContext returns the evaluation id stored in ctx, if any.
func EvalIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(evalIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithTrace stores trace and span ids in ctx.
func ContextWithTrace(ctx context.Context, traceID, spanID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	return context.WithValue(ctx, spanIDKey, spanID)
}

func outputWriter(output string) *os.File {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// consoleWriter renders "time level component message fields" lines.
func consoleWriter(cfg *Config) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        outputWriter(cfg.Output),
		NoColor:    cfg.NoColor,
		TimeFormat: time.TimeOnly,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			FieldComponent,
			zerolog.MessageFieldName,
		},
		FieldsExclude: []string{FieldComponent},
		FormatFieldValue: func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
}

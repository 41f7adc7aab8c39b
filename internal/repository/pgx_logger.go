package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// maxLoggedSQL caps statement text in trace output; match documents make long statements.
const maxLoggedSQL = 512

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface.
type pgxLogger struct {
	logger zerolog.Logger
}

func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	l := logger.With().Str("module", "repository").Str("component", "pgx").Logger()
	return &pgxLogger{logger: l}
}

var pgxLevels = map[tracelog.LogLevel]zerolog.Level{
	tracelog.LogLevelTrace: zerolog.TraceLevel,
	tracelog.LogLevelDebug: zerolog.DebugLevel,
	tracelog.LogLevelInfo:  zerolog.InfoLevel,
	tracelog.LogLevelWarn:  zerolog.WarnLevel,
	tracelog.LogLevelError: zerolog.ErrorLevel,
}

// Log implements tracelog.Logger. SQL text is truncated and bound arguments are
// only counted, since they carry whole JSON payloads.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}

	zl, ok := pgxLevels[level]
	if !ok {
		zl = zerolog.InfoLevel
	}
	event := l.logger.WithLevel(zl)
	if !ok {
		event = event.Str("pgx_log_level", level.String())
	}

	for k, v := range data {
		switch k {
		case "sql":
			if s, ok := v.(string); ok {
				event = event.Str("sql", truncateSQL(s))
			} else {
				event = event.Interface("sql", v)
			}
		case "args":
			if args, ok := v.([]any); ok {
				event = event.Int("args", len(args))
			}
		case "time":
			if d, ok := v.(time.Duration); ok {
				event = event.Dur("took", d)
			} else {
				event = event.Interface(k, v)
			}
		default:
			event = event.Interface(k, v)
		}
	}
	event.Msg(msg)
}

func truncateSQL(s string) string {
	if len(s) <= maxLoggedSQL {
		return s
	}
	return s[:maxLoggedSQL] + "..."
}

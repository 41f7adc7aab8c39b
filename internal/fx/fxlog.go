package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// eventLogger routes fx lifecycle events to zerolog. Only failures and the
// start/stop milestones are logged above debug.
type eventLogger struct {
	log zerolog.Logger
}

// WithZerolog makes fx log through the application logger once it is built.
func WithZerolog() fx.Option {
	return fx.WithLogger(func(log zerolog.Logger) fxevent.Logger {
		return &eventLogger{log: log.With().Str("module", "app").Str("component", "fx").Logger()}
	})
}

func (l *eventLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("start hook failed")
			return
		}
		l.log.Debug().Str("callee", e.FunctionName).Dur("took", e.Runtime).Msg("start hook executed")
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Str("callee", e.FunctionName).Msg("stop hook failed")
			return
		}
		l.log.Debug().Str("callee", e.FunctionName).Dur("took", e.Runtime).Msg("stop hook executed")
	case *fxevent.Provided:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Str("constructor", e.ConstructorName).Msg("provide failed")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Str("function", e.FunctionName).Msg("invoke failed")
		}
	case *fxevent.RollingBack:
		l.log.Error().Err(e.StartErr).Msg("start failed, rolling back")
	case *fxevent.Started:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Msg("start failed")
			return
		}
		l.log.Info().Msg("application started")
	case *fxevent.Stopped:
		if e.Err != nil {
			l.log.Error().Err(e.Err).Msg("stop failed")
			return
		}
		l.log.Info().Msg("application stopped")
	}
}

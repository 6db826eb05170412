package log

import (
	"context"

	"github.com/rs/zerolog"
)

// Adapter routes third-party library logs into the context logger. It
// satisfies goose's Logger (Printf, Fatalf) and gocron's Logger (leveled
// messages with key/value pairs).
type Adapter struct {
	logger zerolog.Logger
}

// NewAdapter tags every line with the library name.
func NewAdapter(ctx context.Context, library string) *Adapter {
	return &Adapter{logger: FromCtx(ctx).With().Str("lib", library).Logger()}
}

func (a *Adapter) Printf(format string, v ...any) {
	a.logger.Debug().Msgf(format, v...)
}

// Fatalf logs at error level and leaves termination to the caller. goose
// returns the failure as an error as well.
func (a *Adapter) Fatalf(format string, v ...any) {
	a.logger.Error().Msgf(format, v...)
}

func (a *Adapter) Debug(msg string, args ...any) {
	a.logger.Debug().Fields(args).Msg(msg)
}

func (a *Adapter) Info(msg string, args ...any) {
	a.logger.Info().Fields(args).Msg(msg)
}

func (a *Adapter) Warn(msg string, args ...any) {
	a.logger.Warn().Fields(args).Msg(msg)
}

func (a *Adapter) Error(msg string, args ...any) {
	a.logger.Error().Fields(args).Msg(msg)
}

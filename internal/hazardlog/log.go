// Package hazardlog wraps zerolog the way the teacher wraps Gin's request
// logger: one package-level constructor, contextual fields attached per
// call site rather than a global mutable logger.
package hazardlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the engine's structured logger. Its zero value is a usable
// no-op (zerolog discards events from a zero Logger), so library callers
// that never attach a logger pay nothing.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w at the given level. Pass os.Stderr and
// zerolog.InfoLevel for the daemon's default.
func New(w io.Writer, level zerolog.Level) Logger {
	zl := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return Logger{zl: zl}
}

// Default builds the daemon's default logger: stderr, info level.
func Default() Logger {
	return New(os.Stderr, zerolog.InfoLevel)
}

// Source returns a logger scoped to one source id, for per-source
// diagnostics: FarAwayRupture skips (from GetPmap) and calc_times (see
// CalcTimes).
func (l Logger) Source(sourceID string) Logger {
	return Logger{zl: l.zl.With().Str("src_id", sourceID).Logger()}
}

// Group returns a logger scoped to one source group id.
func (l Logger) Group(grpID int) Logger {
	return Logger{zl: l.zl.With().Int("grp_id", grpID).Logger()}
}

func (l Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// CalcTimes logs the per-source (nrups, nsites, seconds) accumulation
// produced by GetPmapByGrp (§4.4).
func (l Logger) CalcTimes(sourceID string, nrups, nsites int, seconds float64) {
	l.Source(sourceID).Info().
		Int("nrups", nrups).
		Int("nsites", nsites).
		Float64("seconds", seconds).
		Msg("source processed")
}

// FarAway logs a rupture skipped by the distance filter.
func (l Logger) FarAway(sourceID, rupID string, minDist float64) {
	l.Source(sourceID).Debug().
		Str("rup_id", rupID).
		Float64("min_dist_km", minDist).
		Msg("rupture filtered: too far away")
}

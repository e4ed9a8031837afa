// Package logging wraps zap construction for the engine: a *zap.Logger
// is built once at pager-open time and passed down explicitly, never
// held as a package-global, per spec §9's rejection of global singleton
// configuration.
package logging

import "go.uber.org/zap"

// New returns a development logger (human-readable, debug-enabled) when
// debug is true, otherwise a production logger (JSON, info-and-above).
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Nop returns a logger that discards everything, for callers that don't
// want to wire one in (e.g. tests, the in-memory tree).
func Nop() *zap.Logger {
	return zap.NewNop()
}

// Package logging builds the structured loggers used across the core.
// The shape is grounded on dittofs's internal/logger: a slog.Logger with
// a component identity bound in, plus small attribute helpers for the
// fields every component ends up logging (chunk coordinate, region
// coordinate, error kind).
package logging

import (
	"log/slog"
	"os"
)

// minLevel is shared by every logger New returns; its zero value is Info.
var minLevel = new(slog.LevelVar)

var base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: minLevel,
}))

// New returns a logger tagged with the owning component's name, e.g.
// "region", "save", "mesh", "scheduler".
func New(component string) *slog.Logger {
	return base.With(slog.String("component", component))
}

// SetLevel adjusts the minimum level of the shared handler. Intended for
// demo binaries and tests that want -v style verbosity.
func SetLevel(level slog.Level) {
	minLevel.Set(level)
}

// ChunkAttr builds the (cx, cz) attribute pair logged by chunk-level
// events.
func ChunkAttr(cx, cz int32) slog.Attr {
	return slog.Group("chunk", slog.Int64("cx", int64(cx)), slog.Int64("cz", int64(cz)))
}

// RegionAttr builds the (rx, rz) attribute pair logged by region-level
// events.
func RegionAttr(rx, rz int32) slog.Attr {
	return slog.Group("region", slog.Int64("rx", int64(rx)), slog.Int64("rz", int64(rz)))
}

// ErrAttr wraps an error for consistent logging.
func ErrAttr(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

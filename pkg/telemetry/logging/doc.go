// Package logging provides structured logging configuration on top of
// log/slog.
//
// New builds a slog.Logger from a Config (level, format, source
// annotation); ForComponent scopes the default logger to a named
// component. Components log through slog so applications keep a single
// logging pipeline.
package logging

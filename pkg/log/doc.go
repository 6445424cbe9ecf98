// Package log provides the structured logging facade shared by every TSN
// component.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that feeds our formatter and
// outputs pipeline.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("fanout"), log.Str("user", "alice"))
//	l.Info("post accepted", log.Int("followers", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and multiple outputs (console, file, null), plus key
// redaction and per-message sampling.
//
// # Interop
//
// The printf-style methods match pebble.Logger, so the storage layer logs
// through the same pipeline. For libraries expecting *log.Logger use
// ToStdLogger or RedirectStdLog.
package log

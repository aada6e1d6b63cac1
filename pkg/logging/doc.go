// Package logging configures the log/slog loggers used by httpsim.
//
// The simulator and CLI accept a *slog.Logger; when none is given they use
// Nop. Exchange lifecycle events are logged at debug level with an
// "exchange" attribute, so a text logger at debug shows one line per step:
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug})
//	sim := simulator.New(handler, simulator.WithLogger(logger))
//
// Two formats are available: text for terminals and JSON for log pipelines.
package logging

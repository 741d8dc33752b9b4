// Package logging provides a tiny abstraction so downstream code can depend
// on a minimal Logger interface while users plug in any structured logger.
// Adapters for log/slog and go.uber.org/zap are included; the default
// everywhere is NoOpLogger.
package logging

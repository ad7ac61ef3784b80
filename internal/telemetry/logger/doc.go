// Package logger provides structured logging for tsxlock tools.
//
//   - logger.go: log/slog handler configuration and the global logger
//   - context.go: context propagation of the logger, run ID and workload
//
// Features:
//
//   - JSON and text output formats
//   - Runtime level adjustment through SetLevel
//   - Durations rendered as human-readable strings
package logger

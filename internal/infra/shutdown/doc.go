// Package shutdown turns SIGINT/SIGTERM into context cancellation and runs
// cleanup hooks, such as stopping the metrics listener and config watcher,
// exactly once.
package shutdown

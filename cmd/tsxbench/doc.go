// Package main provides the entry point for tsxbench.
//
// tsxbench measures the spinlock, the transacted-lock executor and the
// concurrent map under contention, with hardware transactions on and off.
//
// Usage:
//
//	tsxbench probe
//	tsxbench run --workload map-readwrite --threads 8 -o json
//	tsxbench --config tsxbench.yaml run --watch --metrics-addr :9100
package main

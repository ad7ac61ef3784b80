// Package bench measures the throughput of the spinlock, the transacted-lock
// executor and the concurrent map under contention.
//
// Every workload runs Threads goroutines of Iterations operations each,
// released together through a start gate. When hardware transactions are
// available a second set of passes can run with the probe forced off, so
// the report shows elided and locked throughput side by side. Each workload
// verifies its end state after the pass, so a lost update fails the run.
package bench

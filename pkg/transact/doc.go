// Package transact runs critical sections with hardware lock elision.
//
// An Executor wraps a spinlock.Spinlock. When the htm.Probe reports that
// Intel RTM is usable, Do first runs the section inside a hardware
// transaction without taking the lock; the lock word is read at the start of
// the transaction so that any goroutine holding the lock conflicts with, and
// aborts, the elided section. Aborted attempts are retried a bounded number
// of times, then the section runs under the lock.
//
//	var lock spinlock.Spinlock
//	exec := transact.New(&lock, htm.NewProbe())
//	exec.Do(func() {
//		counter++
//	})
//	n := transact.Run(exec, func() int { return counter })
//
// Callers never observe an abort: the body runs exactly once, under
// exclusion, in either mode. With the probe forced off Do behaves exactly
// like lock.Do.
package transact

// Package spinlock provides a minimal, non-reentrant mutual-exclusion lock
// over a single atomic word.
//
// A Spinlock never parks the caller: Lock busy-waits until the word flips
// from unlocked to locked. It is intended for critical sections that are
// short enough that a context switch would cost more than the wait.
//
// Usage:
//
//	var lock spinlock.Spinlock
//	lock.Do(func() {
//		counter++
//	})
//
// The lock word is also the conflict point for pkg/transact: a hardware
// transaction reads it first, so any fallback holder aborts elided sections.
package spinlock

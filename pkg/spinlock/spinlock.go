package spinlock

import "sync/atomic"

const (
	unlocked uint32 = 0
	locked   uint32 = 1
)

// maxBackoff caps the PAUSE instructions issued between two reads of a
// held lock word.
const maxBackoff = 64

// Spinlock is a non-reentrant lock over one atomic word.
//
// The zero value is an unlocked Spinlock. A Spinlock must not be copied
// after first use and must not be discarded while held.
type Spinlock struct {
	state atomic.Uint32
}

// TryLock acquires the lock if it is free and reports whether it did.
// It never blocks.
func (s *Spinlock) TryLock() bool {
	return s.state.CompareAndSwap(unlocked, locked)
}

// Lock spins until the lock is acquired. It never parks the goroutine or
// hands its thread to the scheduler; a waiter is only descheduled by Go's
// asynchronous preemption.
func (s *Spinlock) Lock() {
	if s.TryLock() {
		return
	}
	s.lockSlow()
}

func (s *Spinlock) lockSlow() {
	for {
		// Test before test-and-set so waiters spin on a shared cache line
		// instead of bouncing it with failed CAS attempts.
		s.Wait()
		if s.TryLock() {
			return
		}
	}
}

// Wait spins until the lock is observed free, without acquiring it.
func (s *Spinlock) Wait() {
	backoff := uint32(1)
	for s.state.Load() == locked {
		relax(backoff)
		backoff = min(backoff<<1, maxBackoff)
	}
}

// Unlock releases the lock.
// Unlocking a Spinlock that is not held is a programming error and panics.
func (s *Spinlock) Unlock() {
	if !s.state.CompareAndSwap(locked, unlocked) {
		panic("spinlock: unlock of unlocked lock")
	}
}

// IsLocked reports whether the lock is currently held by anyone.
func (s *Spinlock) IsLocked() bool {
	return s.state.Load() == locked
}

// Do runs fn while holding the lock. The lock is released on every exit
// path, including a panic in fn.
func (s *Spinlock) Do(fn func()) {
	s.Lock()
	defer s.Unlock()
	fn()
}

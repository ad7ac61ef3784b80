// Package transact runs critical sections with hardware lock elision.
package transact

import (
	"sync/atomic"

	"github.com/yndnr/tsxlock-go/pkg/htm"
	"github.com/yndnr/tsxlock-go/pkg/spinlock"
)

// DefaultMaxRetries is the number of hardware attempts made before a
// section falls back to the lock.
const DefaultMaxRetries = 8

// State is a step of the per-invocation state machine.
type State int

const (
	// StateAttempt starts a hardware transaction and runs the body in it.
	StateAttempt State = iota
	// StateAbort decides between another attempt and the fallback.
	StateAbort
	// StateFallback runs the body under the lock.
	StateFallback
	// StateCommit is terminal: the body has run exactly once.
	StateCommit
)

func (s State) String() string {
	switch s {
	case StateAttempt:
		return "attempt"
	case StateAbort:
		return "abort"
	case StateFallback:
		return "fallback"
	case StateCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Observer is notified of every transition out of an attempt. Calls are
// made outside of any hardware transaction.
type Observer interface {
	Committed()
	Aborted(cause AbortCause)
	FellBack()
}

type nopObserver struct{}

func (nopObserver) Committed()         {}
func (nopObserver) Aborted(AbortCause) {}
func (nopObserver) FellBack()          {}

// Stats is a snapshot of an Executor's counters.
type Stats struct {
	Commits   uint64 `json:"commits"`
	Aborts    uint64 `json:"aborts"`
	Fallbacks uint64 `json:"fallbacks"`
}

// Executor runs sections guarded by one Spinlock, eliding the lock with
// hardware transactions when the Probe allows it.
type Executor struct {
	lock       *spinlock.Spinlock
	probe      *htm.Probe
	maxRetries int
	observer   Observer

	commits   atomic.Uint64
	aborts    atomic.Uint64
	fallbacks atomic.Uint64
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxRetries sets the number of hardware attempts before falling back.
// Values below 1 are ignored.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 1 {
			e.maxRetries = n
		}
	}
}

// WithObserver installs an Observer.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Executor for lock. A nil probe means htm.Default().
func New(lock *spinlock.Spinlock, probe *htm.Probe, opts ...Option) *Executor {
	if probe == nil {
		probe = htm.Default()
	}
	e := &Executor{
		lock:       lock,
		probe:      probe,
		maxRetries: DefaultMaxRetries,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lock returns the Spinlock the Executor elides.
func (e *Executor) Lock() *spinlock.Spinlock {
	return e.lock
}

// Probe returns the capability probe consulted on every call.
func (e *Executor) Probe() *htm.Probe {
	return e.probe
}

// Do runs fn exactly once with mutual exclusion against every other section
// on the same lock, whether they are elided or lock-based.
func (e *Executor) Do(fn func()) {
	state := StateFallback
	if e.probe.Available() {
		state = StateAttempt
	}

	var (
		attempts int
		cause    AbortCause
	)
	for {
		switch state {
		case StateAttempt:
			attempts++
			status := e.try(fn)
			if status == txStarted {
				e.commits.Add(1)
				e.observer.Committed()
				state = StateCommit
				continue
			}
			cause = AbortCause(status)
			e.aborts.Add(1)
			e.observer.Aborted(cause)
			state = StateAbort

		case StateAbort:
			if !cause.Retryable() || attempts >= e.maxRetries {
				state = StateFallback
				continue
			}
			if cause.Has(AbortExplicit) {
				// Most likely the lock was held when the attempt started;
				// retrying before the holder leaves would abort again.
				e.lock.Wait()
			}
			state = StateAttempt

		case StateFallback:
			e.fallbacks.Add(1)
			e.observer.FellBack()
			e.lock.Do(fn)
			state = StateCommit

		case StateCommit:
			return
		}
	}
}

// try runs fn inside one hardware transaction. It returns txStarted when
// the transaction committed, otherwise the abort status.
func (e *Executor) try(fn func()) (status uint32) {
	defer func() {
		// A panicking body must not leave the transaction open; aborting
		// rolls back to txBegin and the body is re-run under the lock.
		if r := recover(); r != nil {
			txAbort()
			panic(r)
		}
	}()

	if status = txBegin(); status != txStarted {
		return status
	}
	// Reading the lock word puts it in the read set: a fallback holder that
	// acquires it later aborts this transaction.
	if e.lock.IsLocked() {
		txAbort()
	}
	fn()
	txEnd()
	return txStarted
}

// Stats returns a snapshot of the Executor's counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Commits:   e.commits.Load(),
		Aborts:    e.aborts.Load(),
		Fallbacks: e.fallbacks.Load(),
	}
}

// Run runs fn through e.Do and returns its result. A result computed by an
// aborted hardware attempt is discarded with the rest of the attempt.
func Run[T any](e *Executor, fn func() T) T {
	var result T
	e.Do(func() {
		result = fn()
	})
	return result
}

//go:build !amd64 || race

package transact

const txStarted = ^uint32(0)

// txBegin never starts a transaction on this platform; the returned status
// carries no retry hint, so the Executor falls back immediately.
var (
	txBegin = func() uint32 { return 0 }
	txEnd   = func() {}
	txAbort = func() {}
)

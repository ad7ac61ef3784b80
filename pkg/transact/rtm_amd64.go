//go:build amd64 && !race

package transact

import "github.com/linux4life798/safetyfast"

const txStarted = safetyfast.TxBeginStarted

// The RTM primitives. txBegin returns txStarted inside a new transaction,
// or the abort status once the transaction has been rolled back to it.
// Tests replace them with scripted statuses.
var (
	txBegin = safetyfast.TxBegin
	txEnd   = safetyfast.TxEnd
	txAbort = safetyfast.TxAbort
)

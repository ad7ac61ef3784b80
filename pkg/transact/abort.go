package transact

import "strings"

// AbortCause is the status word reported by the processor when a hardware
// transaction aborts. The low bits describe why; the top byte carries the
// code passed to an explicit abort.
type AbortCause uint32

// Abort status bits, as defined for the RTM XBEGIN fallback path.
const (
	AbortExplicit AbortCause = 1 << iota
	AbortRetry
	AbortConflict
	AbortCapacity
	AbortDebug
	AbortNested
)

var causeNames = []struct {
	bit  AbortCause
	name string
}{
	{AbortExplicit, "explicit"},
	{AbortRetry, "retry"},
	{AbortConflict, "conflict"},
	{AbortCapacity, "capacity"},
	{AbortDebug, "debug"},
	{AbortNested, "nested"},
}

// Has reports whether all bits of c2 are set in c.
func (c AbortCause) Has(c2 AbortCause) bool {
	return c&c2 == c2
}

// Code returns the explicit abort code.
func (c AbortCause) Code() uint8 {
	return uint8(c >> 24)
}

// Retryable reports whether another hardware attempt may succeed.
func (c AbortCause) Retryable() bool {
	if c.Has(AbortCapacity) {
		return false
	}
	return c.Has(AbortRetry) || c.Has(AbortExplicit)
}

// String renders the set bits, e.g. "retry|conflict".
func (c AbortCause) String() string {
	return strings.Join(c.Labels(), "|")
}

// Labels returns one label per set bit, or "unknown". Used for per-cause
// metrics.
func (c AbortCause) Labels() []string {
	var labels []string
	for _, cn := range causeNames {
		if c.Has(cn.bit) {
			labels = append(labels, cn.name)
		}
	}
	if len(labels) == 0 {
		labels = append(labels, "unknown")
	}
	return labels
}

// Package htm detects hardware transactional memory support.
package htm

import (
	"sync"
	"sync/atomic"
)

// Probe reports whether hardware transactions may be used.
//
// The hardware answer is computed once per Probe and never changes
// afterwards. The override is independent of it and may be toggled at any
// time; it takes effect on the next transacted attempt.
type Probe struct {
	detector func() bool

	once     sync.Once
	hardware bool

	forced atomic.Bool
}

// Option configures a Probe.
type Option func(*Probe)

// WithDetector replaces the hardware capability query.
func WithDetector(fn func() bool) Option {
	return func(p *Probe) {
		if fn != nil {
			p.detector = fn
		}
	}
}

// NewProbe creates a Probe backed by HardwareRTM unless another detector is
// supplied.
func NewProbe(opts ...Option) *Probe {
	p := &Probe{detector: HardwareRTM}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Detect queries the hardware on first use and returns the cached answer.
func (p *Probe) Detect() bool {
	p.once.Do(func() {
		p.hardware = p.detector()
	})
	return p.hardware
}

// ForceDisable sets or clears the override. While set, Available reports
// false regardless of what the hardware supports.
func (p *Probe) ForceDisable(on bool) {
	p.forced.Store(on)
}

// Forced reports whether the override is set.
func (p *Probe) Forced() bool {
	return p.forced.Load()
}

// Available reports whether a transacted section may start a hardware
// transaction right now.
func (p *Probe) Available() bool {
	if p.forced.Load() {
		return false
	}
	return p.Detect()
}

var (
	defaultOnce  sync.Once
	defaultProbe *Probe
)

// Default returns the process-wide Probe used by constructors that are not
// given one explicitly.
func Default() *Probe {
	defaultOnce.Do(func() {
		defaultProbe = NewProbe()
	})
	return defaultProbe
}

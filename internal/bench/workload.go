package bench

import (
	"fmt"
	"slices"

	"github.com/yndnr/tsxlock-go/pkg/cmap"
	"github.com/yndnr/tsxlock-go/pkg/htm"
	"github.com/yndnr/tsxlock-go/pkg/spinlock"
	"github.com/yndnr/tsxlock-go/pkg/transact"
)

// Params describe one pass of a workload.
type Params struct {
	Threads    int
	Iterations int
	Reserve    int
	Probe      *htm.Probe
	MaxRetries int
	MaxBuckets int
	Hasher     string
	Seed       uint32
	Observer   transact.Observer
}

func (p Params) executorOptions() []transact.Option {
	opts := []transact.Option{transact.WithMaxRetries(p.MaxRetries)}
	if p.Observer != nil {
		opts = append(opts, transact.WithObserver(p.Observer))
	}
	return opts
}

func (p Params) mapOptions() []cmap.Option {
	opts := []cmap.Option{
		cmap.WithProbe(p.Probe),
		cmap.WithMaxRetries(p.MaxRetries),
		cmap.WithCapacity(p.Reserve),
	}
	if p.MaxBuckets > 0 {
		opts = append(opts, cmap.WithMaxBuckets(p.MaxBuckets))
	}
	if p.Observer != nil {
		opts = append(opts, cmap.WithObserver(p.Observer))
	}
	return opts
}

func (p Params) newMap() *cmap.Map[int, int] {
	if p.Hasher == "murmur3" {
		return cmap.NewWithHasher[int, int](cmap.Murmur3Int[int](p.Seed), p.mapOptions()...)
	}
	return cmap.New[int, int](p.mapOptions()...)
}

// instance is a workload prepared for one pass.
type instance interface {
	// run executes iterations [from, to) for thread.
	run(thread, from, to int) error
	// verify checks the end state after every thread finished.
	verify() error
	stats() transact.Stats
	// mapStats is nil for workloads that do not use a map.
	mapStats() *cmap.Stats
}

// Workload is a named benchmark.
type Workload struct {
	Name        string
	Description string
	build       func(p Params) (instance, error)
}

var workloads = []Workload{
	{"spinlock", "per-thread counters incremented under the plain spinlock", newCounterSpinlock},
	{"transact", "per-thread counters incremented in transacted sections", newCounterTransact},
	{"alloc-small", "16 byte allocate/release pairs in transacted sections", newAlloc(16)},
	{"alloc-large", "64 KiB allocate/release pairs in transacted sections", newAlloc(64 << 10)},
	{"map-write", "every thread inserts and erases under the map lock", newMapWrite},
	{"map-read", "every thread looks up prefilled keys through the executor", newMapRead},
	{"map-readwrite", "thread 0 writes, the others read through the executor", newMapReadWrite},
}

// Workloads returns every workload in run order.
func Workloads() []Workload {
	return slices.Clone(workloads)
}

// Lookup returns the workload called name.
func Lookup(name string) (Workload, error) {
	for _, w := range workloads {
		if w.Name == name {
			return w, nil
		}
	}
	return Workload{}, fmt.Errorf("%w: %q", ErrUnknownWorkload, name)
}

// paddedCounter keeps each thread's counter on its own cache line.
type paddedCounter struct {
	value uint64
	_     [56]byte
}

type counterBench struct {
	lock       spinlock.Spinlock
	exec       *transact.Executor
	counters   []paddedCounter
	iterations int
}

func newCounter(p Params) *counterBench {
	c := &counterBench{
		counters:   make([]paddedCounter, p.Threads),
		iterations: p.Iterations,
	}
	c.exec = transact.New(&c.lock, p.Probe, p.executorOptions()...)
	return c
}

func (c *counterBench) verify() error {
	for i := range c.counters {
		if got := c.counters[i].value; got != uint64(c.iterations) {
			return fmt.Errorf("%w: thread %d counted %d, want %d", ErrVerify, i, got, c.iterations)
		}
	}
	return nil
}

func (c *counterBench) stats() transact.Stats { return c.exec.Stats() }
func (c *counterBench) mapStats() *cmap.Stats  { return nil }

type counterSpinlock struct{ *counterBench }

func newCounterSpinlock(p Params) (instance, error) {
	return counterSpinlock{newCounter(p)}, nil
}

func (c counterSpinlock) run(thread, from, to int) error {
	counter := &c.counters[thread]
	for n := from; n < to; n++ {
		c.lock.Lock()
		counter.value++
		c.lock.Unlock()
	}
	return nil
}

type counterTransact struct{ *counterBench }

func newCounterTransact(p Params) (instance, error) {
	return counterTransact{newCounter(p)}, nil
}

func (c counterTransact) run(thread, from, to int) error {
	counter := &c.counters[thread]
	inc := func() { counter.value++ }
	for n := from; n < to; n++ {
		c.exec.Do(inc)
	}
	return nil
}

type allocBench struct {
	lock  spinlock.Spinlock
	exec  *transact.Executor
	size  int
	sinks []allocSink
}

type allocSink struct {
	buf []byte
	_   [40]byte
}

func newAlloc(size int) func(Params) (instance, error) {
	return func(p Params) (instance, error) {
		a := &allocBench{size: size, sinks: make([]allocSink, p.Threads)}
		a.exec = transact.New(&a.lock, p.Probe, p.executorOptions()...)
		return a, nil
	}
}

func (a *allocBench) run(thread, from, to int) error {
	sink := &a.sinks[thread]
	alloc := func() { sink.buf = make([]byte, a.size) }
	release := func() { sink.buf = nil }
	for n := from; n < to; n++ {
		a.exec.Do(alloc)
		a.exec.Do(release)
	}
	return nil
}

func (a *allocBench) verify() error {
	for i := range a.sinks {
		if a.sinks[i].buf != nil {
			return fmt.Errorf("%w: thread %d left a buffer behind", ErrVerify, i)
		}
	}
	return nil
}

func (a *allocBench) stats() transact.Stats { return a.exec.Stats() }
func (a *allocBench) mapStats() *cmap.Stats  { return nil }

type mapBench struct {
	m *cmap.Map[int, int]
}

func (b mapBench) stats() transact.Stats { return b.m.Executor().Stats() }

func (b mapBench) mapStats() *cmap.Stats {
	s := b.m.Stats()
	return &s
}

// mapWrite inserts 128 keys then erases 128 keys per 256 iterations, so
// each thread's live set stays bounded.
type mapWrite struct{ mapBench }

func newMapWrite(p Params) (instance, error) {
	return mapWrite{mapBench{p.newMap()}}, nil
}

func (b mapWrite) run(thread, from, to int) error {
	for n := from; n < to; n++ {
		v := n*10 + thread
		if n&255 < 128 {
			if _, err := b.m.Emplace(v, n); err != nil {
				return err
			}
		} else {
			b.m.Erase(v - 1280)
		}
	}
	return nil
}

func (b mapWrite) verify() error { return nil }

// mapRead looks up -(n % (reserve/2)) in a map prefilled with reserve/2
// entries; every nonzero key must be found.
type mapRead struct {
	mapBench
	half   int
	misses []paddedCounter
}

func prefill(p Params) (*cmap.Map[int, int], int, error) {
	half := p.Reserve / 2
	if half < 2 {
		return nil, 0, fmt.Errorf("%w: reserve must be at least 4, got %d", ErrInvalidParams, p.Reserve)
	}
	m := p.newMap()
	for n := 0; n < half; n++ {
		if _, err := m.Emplace(-n, n); err != nil {
			return nil, 0, fmt.Errorf("prefill: %w", err)
		}
	}
	return m, half, nil
}

func newMapRead(p Params) (instance, error) {
	m, half, err := prefill(p)
	if err != nil {
		return nil, err
	}
	return &mapRead{mapBench: mapBench{m}, half: half, misses: make([]paddedCounter, p.Threads)}, nil
}

func (b *mapRead) run(thread, from, to int) error {
	misses := &b.misses[thread]
	for n := from; n < to; n++ {
		if v := -(n % b.half); v != 0 {
			if _, ok := b.m.Find(v); !ok {
				misses.value++
			}
		}
	}
	return nil
}

func (b *mapRead) verify() error {
	for i := range b.misses {
		if b.misses[i].value != 0 {
			return fmt.Errorf("%w: thread %d missed %d prefilled keys", ErrVerify, i, b.misses[i].value)
		}
	}
	return nil
}

// mapReadWrite has thread 0 alternate between inserting and erasing its
// oldest insert in runs of threads iterations, while the other threads look
// up recently written keys.
type mapReadWrite struct {
	mapBench
	threads int
	pending []int
}

func newMapReadWrite(p Params) (instance, error) {
	b := &mapReadWrite{mapBench: mapBench{p.newMap()}, threads: p.Threads}
	if p.Reserve >= 4 {
		m, _, err := prefill(p)
		if err != nil {
			return nil, err
		}
		b.m = m
	}
	return b, nil
}

func (b *mapReadWrite) run(thread, from, to int) error {
	if thread != 0 {
		for n := from; n < to; n++ {
			b.m.Find(n - 1)
		}
		return nil
	}
	for n := from; n < to; n++ {
		if (n/b.threads)&1 != 0 {
			inserted, err := b.m.Emplace(n, n)
			if err != nil {
				return err
			}
			if inserted {
				b.pending = append(b.pending, n)
			}
		} else if len(b.pending) > 0 {
			b.m.Erase(b.pending[0])
			b.pending = b.pending[1:]
		}
	}
	return nil
}

func (b *mapReadWrite) verify() error {
	for _, k := range b.pending {
		if !b.m.Contains(k) {
			return fmt.Errorf("%w: key %d written by thread 0 is missing", ErrVerify, k)
		}
	}
	return nil
}

package cmap

import (
	"errors"
	"fmt"
	"hash/maphash"

	"github.com/yndnr/tsxlock-go/pkg/htm"
	"github.com/yndnr/tsxlock-go/pkg/spinlock"
	"github.com/yndnr/tsxlock-go/pkg/transact"
)

// DefaultMaxBuckets is the default storage ceiling.
const DefaultMaxBuckets = 1 << 24

// ErrCapacityExceeded is returned when backing storage cannot grow to hold
// the requested number of entries.
var ErrCapacityExceeded = errors.New("cmap: capacity exceeded")

// Entry is a key/value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is a concurrent hash map with two interchangeable storage layouts.
type Map[K comparable, V any] struct {
	lock       spinlock.Spinlock
	exec       *transact.Executor
	hash       func(K) uint64
	maxBuckets int
	table      storage[K, V]
}

type options struct {
	capacity   int
	probe      *htm.Probe
	maxBuckets int
	execOpts   []transact.Option
}

// Option configures a Map.
type Option func(*options)

// WithCapacity pre-sizes the map for n entries. The layout is chosen the
// same way Reserve chooses it.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// WithProbe sets the capability probe used by the read path.
func WithProbe(p *htm.Probe) Option {
	return func(o *options) {
		o.probe = p
	}
}

// WithMaxBuckets caps the bucket count backing storage may grow to. The cap
// is rounded down to a power of two, and lowered further when a full table
// of that size would exceed MaxTableBytes.
func WithMaxBuckets(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBuckets = n
		}
	}
}

// WithMaxRetries sets the hardware attempts a read makes before taking the
// lock.
func WithMaxRetries(n int) Option {
	return func(o *options) {
		o.execOpts = append(o.execOpts, transact.WithMaxRetries(n))
	}
}

// WithObserver reports read-path transaction outcomes to obs.
func WithObserver(obs transact.Observer) Option {
	return func(o *options) {
		o.execOpts = append(o.execOpts, transact.WithObserver(obs))
	}
}

// New creates an empty map hashed with hash/maphash.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	seed := maphash.MakeSeed()
	return NewWithHasher[K, V](func(key K) uint64 {
		return maphash.Comparable(seed, key)
	}, opts...)
}

// NewWithHasher creates an empty map using hash for keys.
//
// A capacity hint above the storage ceiling is clamped to it.
func NewWithHasher[K comparable, V any](hash func(K) uint64, opts ...Option) *Map[K, V] {
	o := options{maxBuckets: DefaultMaxBuckets}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Map[K, V]{
		hash:       hash,
		maxBuckets: prevPow2(o.maxBuckets),
	}
	m.exec = transact.New(&m.lock, o.probe, o.execOpts...)

	capacity := max(o.capacity, 0)
	layout := layoutFor(capacity)
	ceiling := m.ceiling(layout)
	buckets := ceiling
	if capacity < ceiling {
		buckets = min(bucketsFor(layout, capacity), ceiling)
	}
	m.table = newStorage[K, V](layout, buckets)
	return m
}

// NewFrom creates a map holding entries. Later duplicates of a key are
// ignored, as Insert would ignore them.
func NewFrom[K comparable, V any](entries []Entry[K, V], opts ...Option) (*Map[K, V], error) {
	m := New[K, V](opts...)
	for _, e := range entries {
		if _, err := m.Insert(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ceiling is the largest bucket count a table of layout may have: the
// configured maximum, lowered so a full table fits in MaxTableBytes.
func (m *Map[K, V]) ceiling(layout Layout) int {
	limit := uintptr(MaxTableBytes) / bucketBytes[K, V](layout)
	return min(m.maxBuckets, prevPow2(int(max(limit, 1))))
}

// newTable allocates storage for n entries in the given layout.
func (m *Map[K, V]) newTable(layout Layout, n int) (storage[K, V], error) {
	ceiling := m.ceiling(layout)
	if n > ceiling {
		return nil, fmt.Errorf("%w: %d entries over %d buckets", ErrCapacityExceeded, n, ceiling)
	}
	buckets := bucketsFor(layout, n)
	if buckets > ceiling {
		return nil, fmt.Errorf("%w: %d buckets over %d", ErrCapacityExceeded, buckets, ceiling)
	}
	return newStorage[K, V](layout, buckets), nil
}

// rehashLocked moves every entry into dst and installs it.
func (m *Map[K, V]) rehashLocked(dst storage[K, V]) {
	m.table.each(func(hash uint64, key K, value V) bool {
		dst.insert(hash, key, value)
		return true
	})
	m.table = dst
}

func (m *Map[K, V]) growLocked() error {
	buckets := m.table.grownBuckets()
	if buckets > m.ceiling(m.table.layout()) {
		return fmt.Errorf("%w: cannot grow past %d buckets", ErrCapacityExceeded, m.table.buckets())
	}
	m.rehashLocked(newStorage[K, V](m.table.layout(), buckets))
	return nil
}

func (m *Map[K, V]) insertLocked(hash uint64, key K, value V) (bool, error) {
	if m.table.lookup(hash, key) != nil {
		return false, nil
	}
	if m.table.full() {
		if err := m.growLocked(); err != nil {
			return false, err
		}
	}
	m.table.insert(hash, key, value)
	return true, nil
}

// Reserve rebuilds storage to hold at least n entries without growing.
// Reservations up to DenseThreshold select the dense layout, larger ones
// the sparse layout; existing entries are carried over.
func (m *Map[K, V]) Reserve(n int) error {
	n = max(n, 0)
	layout := layoutFor(n)

	m.lock.Lock()
	defer m.lock.Unlock()

	t, err := m.newTable(layout, max(n, m.table.len()))
	if err != nil {
		return fmt.Errorf("reserve %d: %w", n, err)
	}
	m.rehashLocked(t)
	return nil
}

// Emplace inserts key with value if key is absent. It reports whether the
// entry was inserted; an existing entry is left untouched.
func (m *Map[K, V]) Emplace(key K, value V) (bool, error) {
	hash := m.hash(key)

	m.lock.Lock()
	defer m.lock.Unlock()
	return m.insertLocked(hash, key, value)
}

// Insert is Emplace for an Entry.
func (m *Map[K, V]) Insert(e Entry[K, V]) (bool, error) {
	return m.Emplace(e.Key, e.Value)
}

// Find returns the value stored for key.
func (m *Map[K, V]) Find(key K) (V, bool) {
	hash := m.hash(key)

	var (
		value V
		ok    bool
	)
	m.exec.Do(func() {
		if p := m.table.lookup(hash, key); p != nil {
			value, ok = *p, true
		}
	})
	return value, ok
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Find(key)
	return ok
}

// Erase removes key and reports whether it was present.
func (m *Map[K, V]) Erase(key K) bool {
	_, ok := m.Pop(key)
	return ok
}

// Pop removes key and returns its value.
func (m *Map[K, V]) Pop(key K) (V, bool) {
	hash := m.hash(key)

	m.lock.Lock()
	defer m.lock.Unlock()
	return m.table.erase(hash, key)
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return transact.Run(m.exec, func() int {
		return m.table.len()
	})
}

// Empty reports whether the map has no entries.
func (m *Map[K, V]) Empty() bool {
	return m.Len() == 0
}

// BucketCount returns the number of buckets of the current storage.
func (m *Map[K, V]) BucketCount() int {
	return transact.Run(m.exec, func() int {
		return m.table.buckets()
	})
}

// LoadFactor returns entries per bucket.
func (m *Map[K, V]) LoadFactor() float64 {
	return transact.Run(m.exec, func() float64 {
		return float64(m.table.len()) / float64(m.table.buckets())
	})
}

// Layout returns the active storage layout.
func (m *Map[K, V]) Layout() Layout {
	return transact.Run(m.exec, func() Layout {
		return m.table.layout()
	})
}

// Clear removes all entries. The bucket count is kept.
func (m *Map[K, V]) Clear() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.table.reset()
}

// Executor returns the executor guarding the read path.
func (m *Map[K, V]) Executor() *transact.Executor {
	return m.exec
}

package cmap

import (
	"iter"

	"github.com/yndnr/tsxlock-go/pkg/transact"
)

// snapshot copies every entry while holding the lock.
func (m *Map[K, V]) snapshot() []Entry[K, V] {
	m.lock.Lock()
	defer m.lock.Unlock()

	items := make([]Entry[K, V], 0, m.table.len())
	m.table.each(func(_ uint64, key K, value V) bool {
		items = append(items, Entry[K, V]{Key: key, Value: value})
		return true
	})
	return items
}

// All returns an iterator over a point-in-time snapshot of the map. The
// snapshot is taken when iteration starts; the lock is not held while the
// loop body runs, so the body may modify the map.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.snapshot() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Range calls fn for each entry of a snapshot until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m.All() {
		if !fn(k, v) {
			return
		}
	}
}

// Items returns a snapshot of all entries in bucket order.
func (m *Map[K, V]) Items() []Entry[K, V] {
	return m.snapshot()
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	items := m.snapshot()
	keys := make([]K, len(items))
	for i, e := range items {
		keys[i] = e.Key
	}
	return keys
}

// Values returns all values.
func (m *Map[K, V]) Values() []V {
	items := m.snapshot()
	values := make([]V, len(items))
	for i, e := range items {
		values[i] = e.Value
	}
	return values
}

// GetOrEmplace returns the existing value for key, or inserts value and
// returns it. The bool reports whether the key was already present.
// Unlike Upsert it takes no callback, so nothing user-supplied runs under
// the lock.
func (m *Map[K, V]) GetOrEmplace(key K, value V) (V, bool, error) {
	hash := m.hash(key)

	m.lock.Lock()
	defer m.lock.Unlock()

	if p := m.table.lookup(hash, key); p != nil {
		return *p, true, nil
	}
	if _, err := m.insertLocked(hash, key, value); err != nil {
		var zero V
		return zero, false, err
	}
	return value, false, nil
}

// Upsert atomically updates or inserts a value.
// The callback receives the existing value (or value when absent) and
// whether the key exists; its result is stored and returned.
//
// Note: fn runs with the map's spinlock held. The lock is not reentrant, so
// fn must not call any method of the same map; doing so spins forever.
// Other maps are fine.
func (m *Map[K, V]) Upsert(key K, value V, fn func(existing V, exists bool) V) (V, error) {
	hash := m.hash(key)

	m.lock.Lock()
	defer m.lock.Unlock()

	if p := m.table.lookup(hash, key); p != nil {
		*p = fn(*p, true)
		return *p, nil
	}
	value = fn(value, false)
	if _, err := m.insertLocked(hash, key, value); err != nil {
		var zero V
		return zero, err
	}
	return value, nil
}

// Stats describes the storage of a Map.
type Stats struct {
	Layout     string         `json:"layout"`
	Len        int            `json:"len"`
	Buckets    int            `json:"buckets"`
	LoadFactor float64        `json:"load_factor"`
	Transact   transact.Stats `json:"transact"`
}

// Stats returns storage statistics and the read-path executor counters.
func (m *Map[K, V]) Stats() Stats {
	m.lock.Lock()
	s := Stats{
		Layout:  m.table.layout().String(),
		Len:     m.table.len(),
		Buckets: m.table.buckets(),
	}
	m.lock.Unlock()

	s.LoadFactor = float64(s.Len) / float64(s.Buckets)
	s.Transact = m.exec.Stats()
	return s
}

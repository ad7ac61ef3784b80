package cmap

import (
	"math/bits"
	"unsafe"
)

// Layout identifies the backing storage strategy of a Map.
type Layout uint8

const (
	// LayoutDense stores entries inline in one flat, linearly probed slot
	// array.
	LayoutDense Layout = iota
	// LayoutSparse stores entries in per-bucket chains.
	LayoutSparse
)

func (l Layout) String() string {
	switch l {
	case LayoutDense:
		return "dense"
	case LayoutSparse:
		return "sparse"
	default:
		return "unknown"
	}
}

// DenseThreshold is the largest reservation served by the dense layout.
const DenseThreshold = 128

const (
	minDenseSlots    = 8
	minSparseBuckets = 16
)

// layoutFor selects the layout for a reservation of n entries.
func layoutFor(n int) Layout {
	if n <= DenseThreshold {
		return LayoutDense
	}
	return LayoutSparse
}

// bucketsFor returns the bucket count a layout needs to hold n entries
// without growing.
func bucketsFor(layout Layout, n int) int {
	if layout == LayoutDense {
		// Keep occupancy at or below 3/4.
		return nextPow2(max(n+n/3+1, minDenseSlots))
	}
	return nextPow2(max(n, minSparseBuckets))
}

// MaxTableBytes bounds the memory one storage table may need when full,
// whatever the bucket ceiling allows.
const MaxTableBytes = 1 << 31

// bucketBytes is the memory a full table of layout needs per bucket: the
// inline slot for dense, the head pointer plus one node for sparse.
func bucketBytes[K comparable, V any](layout Layout) uintptr {
	if layout == LayoutDense {
		return unsafe.Sizeof(denseSlot[K, V]{})
	}
	return unsafe.Sizeof((*sparseNode[K, V])(nil)) + unsafe.Sizeof(sparseNode[K, V]{})
}

// prevPow2 returns the largest power of two not above n, for n >= 1.
func prevPow2(n int) int {
	return 1 << (bits.Len(uint(n)) - 1)
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// storage is the variant interface both layouts implement. Callers hold the
// map lock, or run inside a transacted section for the read-only methods.
type storage[K comparable, V any] interface {
	layout() Layout
	len() int
	buckets() int
	// lookup returns a pointer to the value stored for key, or nil.
	lookup(hash uint64, key K) *V
	// insert adds an entry whose key is known to be absent.
	insert(hash uint64, key K, value V)
	erase(hash uint64, key K) (V, bool)
	// full reports whether one more insert requires growing.
	full() bool
	// grownBuckets is the bucket count to grow to when full.
	grownBuckets() int
	each(fn func(hash uint64, key K, value V) bool)
	reset()
}

func newStorage[K comparable, V any](layout Layout, buckets int) storage[K, V] {
	if layout == LayoutDense {
		return newDenseTable[K, V](buckets)
	}
	return newSparseTable[K, V](buckets)
}

const (
	slotEmpty uint8 = iota
	slotFull
	slotDeleted
)

type denseSlot[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
	state uint8
}

// denseTable is an open-addressed table with linear probing. Erased slots
// become tombstones until the next rebuild.
type denseTable[K comparable, V any] struct {
	slots      []denseSlot[K, V]
	mask       uint64
	count      int
	tombstones int
}

func newDenseTable[K comparable, V any](slots int) *denseTable[K, V] {
	slots = nextPow2(slots)
	return &denseTable[K, V]{
		slots: make([]denseSlot[K, V], slots),
		mask:  uint64(slots - 1),
	}
}

func (t *denseTable[K, V]) layout() Layout { return LayoutDense }
func (t *denseTable[K, V]) len() int       { return t.count }
func (t *denseTable[K, V]) buckets() int   { return len(t.slots) }

func (t *denseTable[K, V]) find(hash uint64, key K) int {
	i := hash & t.mask
	for n := 0; n < len(t.slots); n++ {
		s := &t.slots[i]
		switch s.state {
		case slotEmpty:
			return -1
		case slotFull:
			if s.hash == hash && s.key == key {
				return int(i)
			}
		}
		i = (i + 1) & t.mask
	}
	return -1
}

func (t *denseTable[K, V]) lookup(hash uint64, key K) *V {
	if i := t.find(hash, key); i >= 0 {
		return &t.slots[i].value
	}
	return nil
}

func (t *denseTable[K, V]) insert(hash uint64, key K, value V) {
	i := hash & t.mask
	for t.slots[i].state == slotFull {
		i = (i + 1) & t.mask
	}
	s := &t.slots[i]
	if s.state == slotDeleted {
		t.tombstones--
	}
	s.hash, s.key, s.value = hash, key, value
	s.state = slotFull
	t.count++
}

func (t *denseTable[K, V]) erase(hash uint64, key K) (V, bool) {
	var zero V
	i := t.find(hash, key)
	if i < 0 {
		return zero, false
	}
	s := &t.slots[i]
	value := s.value
	var zeroKey K
	s.key, s.value = zeroKey, zero
	s.state = slotDeleted
	t.count--
	t.tombstones++
	return value, true
}

func (t *denseTable[K, V]) full() bool {
	return (t.count+t.tombstones+1)*4 > len(t.slots)*3
}

func (t *denseTable[K, V]) grownBuckets() int {
	// Mostly tombstones: rebuilding at the same size is enough.
	if (t.count+1)*2 <= len(t.slots) {
		return len(t.slots)
	}
	return len(t.slots) * 2
}

func (t *denseTable[K, V]) each(fn func(hash uint64, key K, value V) bool) {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state != slotFull {
			continue
		}
		if !fn(s.hash, s.key, s.value) {
			return
		}
	}
}

func (t *denseTable[K, V]) reset() {
	clear(t.slots)
	t.count = 0
	t.tombstones = 0
}

type sparseNode[K comparable, V any] struct {
	hash  uint64
	key   K
	value V
	next  *sparseNode[K, V]
}

// sparseTable chains colliding entries per bucket. A node is fully built
// before it is linked into its bucket.
type sparseTable[K comparable, V any] struct {
	heads []*sparseNode[K, V]
	mask  uint64
	count int
}

func newSparseTable[K comparable, V any](buckets int) *sparseTable[K, V] {
	buckets = nextPow2(buckets)
	return &sparseTable[K, V]{
		heads: make([]*sparseNode[K, V], buckets),
		mask:  uint64(buckets - 1),
	}
}

func (t *sparseTable[K, V]) layout() Layout { return LayoutSparse }
func (t *sparseTable[K, V]) len() int       { return t.count }
func (t *sparseTable[K, V]) buckets() int   { return len(t.heads) }

func (t *sparseTable[K, V]) lookup(hash uint64, key K) *V {
	for n := t.heads[hash&t.mask]; n != nil; n = n.next {
		if n.hash == hash && n.key == key {
			return &n.value
		}
	}
	return nil
}

func (t *sparseTable[K, V]) insert(hash uint64, key K, value V) {
	b := hash & t.mask
	t.heads[b] = &sparseNode[K, V]{hash: hash, key: key, value: value, next: t.heads[b]}
	t.count++
}

func (t *sparseTable[K, V]) erase(hash uint64, key K) (V, bool) {
	for p := &t.heads[hash&t.mask]; *p != nil; p = &(*p).next {
		n := *p
		if n.hash == hash && n.key == key {
			*p = n.next
			t.count--
			return n.value, true
		}
	}
	var zero V
	return zero, false
}

func (t *sparseTable[K, V]) full() bool {
	return t.count+1 > len(t.heads)
}

func (t *sparseTable[K, V]) grownBuckets() int {
	return len(t.heads) * 2
}

func (t *sparseTable[K, V]) each(fn func(hash uint64, key K, value V) bool) {
	for _, head := range t.heads {
		for n := head; n != nil; n = n.next {
			if !fn(n.hash, n.key, n.value) {
				return
			}
		}
	}
}

func (t *sparseTable[K, V]) reset() {
	clear(t.heads)
	t.count = 0
}

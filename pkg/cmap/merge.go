package cmap

import "unsafe"

// Merge moves every entry of other whose key is absent from m into m.
// Entries whose key is already present in m stay in other untouched, so
// afterwards other holds exactly the colliding entries. It returns the
// number of entries moved.
//
// If m cannot grow, Merge stops and returns ErrCapacityExceeded; entries
// moved so far stay moved and the rest stay in other.
func (m *Map[K, V]) Merge(other *Map[K, V]) (int, error) {
	if other == nil || other == m {
		return 0, nil
	}

	// Lock in address order so concurrent a.Merge(b) and b.Merge(a) cannot
	// deadlock.
	first, second := &m.lock, &other.lock
	if uintptr(unsafe.Pointer(m)) > uintptr(unsafe.Pointer(other)) {
		first, second = second, first
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	type moved struct {
		hash uint64
		key  K
	}
	var (
		transferred []moved
		err         error
	)
	other.table.each(func(hash uint64, key K, value V) bool {
		inserted, ierr := m.insertLocked(m.hash(key), key, value)
		if ierr != nil {
			err = ierr
			return false
		}
		if inserted {
			transferred = append(transferred, moved{hash: hash, key: key})
		}
		return true
	})
	for _, t := range transferred {
		other.table.erase(t.hash, t.key)
	}
	return len(transferred), err
}

// Package cmap provides a concurrent map built on pkg/spinlock and
// pkg/transact.
//
// Features:
//
//   - Lock Elision: Find, Len and the other observers run as transacted
//     sections and only take the lock when hardware transactions abort or
//     are unavailable
//   - Two Layouts: a dense open-addressed slot array for small reservations
//     and sparse chained buckets for large ones, switched by Reserve
//   - Node-transfer Merge: colliding keys stay behind in the source map
//   - Snapshots: All, Items and Range iterate over a point-in-time copy
//
// Usage:
//
//	m := cmap.New[int, string](cmap.WithCapacity(1000))
//	m.Emplace(1, "one")
//	val, ok := m.Find(1)
//
// Thread Safety:
//
// All operations are safe for concurrent use. Mutations (Emplace, Erase,
// Reserve, Merge, Clear) hold the map's spinlock; observers go through its
// transact.Executor. Iteration copies entries under the lock and yields
// them after releasing it.
package cmap

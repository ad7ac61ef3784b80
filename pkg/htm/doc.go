// Package htm detects hardware transactional memory support.
//
// A Probe caches the result of the CPU capability query (Intel TSX/RTM) and
// carries a force-disable override so the software fallback of pkg/transact
// can be exercised deterministically on hardware that does support
// transactions:
//
//	probe := htm.NewProbe()
//	probe.ForceDisable(true)  // every transacted section now takes the lock
//	defer probe.ForceDisable(false)
//
// Effective availability is Detect() && !Forced().
package htm

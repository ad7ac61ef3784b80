package spinlock

// relax executes the PAUSE instruction cycles times.
func relax(cycles uint32)

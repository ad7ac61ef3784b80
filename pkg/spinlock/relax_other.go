//go:build !amd64

package spinlock

// relax burns roughly cycles iterations; there is no portable pause hint.
func relax(cycles uint32) {
	for i := uint32(0); i < cycles; i++ {
	}
}

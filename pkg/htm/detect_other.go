//go:build !amd64 || race

package htm

// HardwareRTM reports false: transactional memory is only used on amd64, and
// never under the race detector, which cannot observe transactional rollback.
func HardwareRTM() bool {
	return false
}

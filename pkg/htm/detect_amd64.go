//go:build amd64 && !race

package htm

import "github.com/intel-go/cpuid"

// HardwareRTM reports whether the running processor implements Intel
// Restricted Transactional Memory.
func HardwareRTM() bool {
	return cpuid.HasExtendedFeature(cpuid.RTM)
}

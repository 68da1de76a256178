//go:build unix

// internal/walker/device_unix.go
package walker

import (
	"os"
	"syscall"
)

// deviceID extracts the device identifier backing info, used for the
// same-filesystem boundary check.
func deviceID(info os.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true
}

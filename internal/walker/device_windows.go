//go:build windows

// internal/walker/device_windows.go
package walker

import "os"

// deviceID is not available from FileInfo on Windows; the same-filesystem
// filter degrades to a no-op there.
func deviceID(info os.FileInfo) (uint64, bool) {
	return 0, false
}

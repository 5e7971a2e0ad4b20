//go:build !darwin || !cgo

package mount

// newPlatformClient reports whether the native mount facility is available.
// On hosts without it the manager binds the external-command mounter instead.
func newPlatformClient() NetFSClient {
	return nil
}

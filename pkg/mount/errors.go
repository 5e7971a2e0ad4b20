package mount

import (
	"fmt"
	"syscall"
)

// AuthNeededError indicates the share refused a non-interactive mount and
// wants credentials. Callers recover by retrying with
// MountWithCredentials; MountInteractive does exactly that after prompting.
type AuthNeededError struct {
	// URL is the share URL that requires authentication.
	URL string

	// Code is the platform result code that was matched against the
	// auth error-code allow-list.
	Code int32
}

func (e *AuthNeededError) Error() string {
	return fmt.Sprintf("share %q requires authentication (code %d)", e.URL, e.Code)
}

// MountFailedError indicates a mount attempt failed for a reason other than
// missing credentials. It is not retried automatically.
type MountFailedError struct {
	// URL is the share URL whose mount failed.
	URL string

	// Code is the numeric platform result code, or the subprocess exit
	// code for the external-command path. Zero when no code applies.
	Code int32

	// Reason is the underlying error string (platform error text,
	// command output, or a descriptive message).
	Reason string
}

func (e *MountFailedError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("error mounting url %q: %s, error %d", e.URL, e.Reason, e.Code)
	}
	return fmt.Sprintf("error mounting url %q: %s", e.URL, e.Reason)
}

// strerror renders a platform result code as text. Positive codes are
// treated as errno values; negative codes come from the native mount
// facility and have no errno string.
func strerror(code int32) string {
	if code > 0 {
		return syscall.Errno(code).Error()
	}
	return fmt.Sprintf("native mount error %d", code)
}

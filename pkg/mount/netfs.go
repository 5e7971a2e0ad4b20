package mount

import (
	"context"
	"slices"
)

// NetFSClient abstracts the platform's native share-mounting facility
// (the NetFS framework on macOS). It exists as an interface so the manager
// can be constructed with a fake in tests and so hosts without the facility
// can fall back to external mount commands.
//
// MountURLSync performs a single synchronous mount attempt and returns the
// platform result code together with the list of resulting mount points.
// A result code of 0 means success; any other value is interpreted by the
// caller (see Manager.Mount).
type NetFSClient interface {
	MountURLSync(ctx context.Context, shareURL, username, password string, opts MountOptions) (int32, []string, error)
}

// MountOptions mirror the open/mount option dictionaries passed to the
// native mount call.
type MountOptions struct {
	// NoUI suppresses any GUI interaction; the mount call fails with an
	// authentication code instead of showing a credentials dialog.
	NoUI bool

	// AllowSubMounts permits mounting sub-directories of root shares.
	AllowSubMounts bool
}

// Result codes indicating that the share wants credentials. The generic
// errno values overlap with unrelated failures on other OS versions, which
// is why the allow-list is configurable (Options.AuthErrorCodes) rather
// than fixed.
const (
	// codeNetAuthInternal is kNetAuthErrorInternal in NetFS.h (10.9+).
	codeNetAuthInternal int32 = -6600

	// codeInvalidArgument (EINVAL) is returned when an AFP share needs a
	// login on some OS versions.
	codeInvalidArgument int32 = 22

	// codeNotSupported (ENOTSUP on darwin) is returned when an AFP share
	// needs a login on some OS versions.
	codeNotSupported int32 = 45

	// codeAuthFailed (EAUTH on darwin) is returned when authentication
	// fails, SMB in particular.
	codeAuthFailed int32 = 80
)

// DefaultAuthErrorCodes is the default allow-list of result codes treated
// as "authentication needed".
func DefaultAuthErrorCodes() []int32 {
	return []int32{codeNetAuthInternal, codeInvalidArgument, codeNotSupported, codeAuthFailed}
}

// netfsMounter mounts shares through the native mount facility.
type netfsMounter struct {
	client    NetFSClient
	authCodes []int32
}

// Mount attempts a single non-interactive mount with empty credentials.
// Result codes in the auth allow-list surface as *AuthNeededError so the
// caller can retry with credentials; everything else non-zero is a
// *MountFailedError.
func (m *netfsMounter) Mount(ctx context.Context, shareURL, _ string) (string, error) {
	code, mountpoints, err := m.client.MountURLSync(ctx, shareURL, "", "", MountOptions{
		NoUI:           true,
		AllowSubMounts: true,
	})
	if err != nil {
		return "", &MountFailedError{URL: shareURL, Reason: err.Error()}
	}
	if code != 0 {
		if slices.Contains(m.authCodes, code) {
			return "", &AuthNeededError{URL: shareURL, Code: code}
		}
		return "", &MountFailedError{URL: shareURL, Code: code, Reason: strerror(code)}
	}
	if len(mountpoints) == 0 {
		return "", &MountFailedError{URL: shareURL, Reason: "mount reported success but no mountpoint"}
	}
	return mountpoints[0], nil
}

// MountWithCredentials retries the mount with explicit credentials.
// Credentials are passed as parameters, never embedded in the URL. There is
// no further fallback: any non-zero result, auth codes included, is a
// *MountFailedError.
func (m *netfsMounter) MountWithCredentials(ctx context.Context, shareURL, _ string, username, password string) (string, error) {
	code, mountpoints, err := m.client.MountURLSync(ctx, shareURL, username, password, MountOptions{
		NoUI:           true,
		AllowSubMounts: true,
	})
	if err != nil {
		return "", &MountFailedError{URL: shareURL, Reason: err.Error()}
	}
	if code != 0 {
		return "", &MountFailedError{URL: shareURL, Code: code, Reason: strerror(code)}
	}
	if len(mountpoints) == 0 {
		return "", &MountFailedError{URL: shareURL, Reason: "mount reported success but no mountpoint"}
	}
	return mountpoints[0], nil
}

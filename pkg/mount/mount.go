// Package mount turns share URLs (afp://, smb://, nfs://) into locally
// accessible directories.
//
// Two mounting strategies exist because not every host exposes the native
// mount facility: a native mounter backed by the platform framework, and a
// fallback that shells out to the scheme-appropriate external mount tool.
// The Manager probes availability once at construction and binds whichever
// strategy is usable, so call sites never branch on platform capability.
//
// Authentication needs are surfaced as a distinct error type
// (*AuthNeededError) so callers can retry with credentials;
// MountInteractive implements the retry with a terminal prompt.
package mount

import (
	"context"
	"errors"
	"os"

	kmount "k8s.io/mount-utils"
)

// DefaultVolumesDir is the conventional root under which network shares are
// mounted.
const DefaultVolumesDir = "/Volumes"

// Mounter is the common contract of the two mounting strategies.
//
// Mount attempts a non-interactive mount of shareURL. The native strategy
// picks its own mount point and ignores target; the command strategy mounts
// at target. The returned path is the live mount point.
type Mounter interface {
	Mount(ctx context.Context, shareURL, target string) (string, error)
	MountWithCredentials(ctx context.Context, shareURL, target, username, password string) (string, error)
}

// Options configures a Manager. The zero value is usable.
type Options struct {
	// AuthErrorCodes is the allow-list of native result codes treated as
	// "authentication needed". Defaults to DefaultAuthErrorCodes(). The
	// exact set is platform/version-specific, hence configurable.
	AuthErrorCodes []int32

	// AFPTool, SMBTool and NFSTool override the external mount tool
	// locations used by the fallback strategy.
	AFPTool string
	SMBTool string
	NFSTool string

	// Client overrides the native mount client, mainly for tests.
	// When nil the platform is probed; a nil probe result selects the
	// external-command fallback.
	Client NetFSClient

	// Prompter overrides the interactive credential prompt, mainly for
	// tests. Defaults to a terminal prompt.
	Prompter CredentialPrompter

	// SysMounter overrides the mount-table inspector backing IsMounted
	// and Unmount, mainly for tests. Defaults to the platform mounter.
	SysMounter kmount.Interface
}

// Manager mounts network shares using the best available mechanism.
type Manager struct {
	mounter  Mounter
	prompter CredentialPrompter
	kmounter kmount.Interface
	native   bool
}

// NewManager probes the native mount facility once and binds the matching
// strategy.
func NewManager(opts Options) *Manager {
	client := opts.Client
	if client == nil {
		client = newPlatformClient()
	}

	authCodes := opts.AuthErrorCodes
	if authCodes == nil {
		authCodes = DefaultAuthErrorCodes()
	}

	afpTool := opts.AFPTool
	if afpTool == "" {
		afpTool = DefaultAFPTool
	}
	smbTool := opts.SMBTool
	if smbTool == "" {
		smbTool = DefaultSMBTool
	}
	nfsTool := opts.NFSTool
	if nfsTool == "" {
		nfsTool = DefaultNFSTool
	}

	var mounter Mounter
	native := client != nil
	if native {
		mounter = &netfsMounter{client: client, authCodes: authCodes}
	} else {
		mounter = &commandMounter{afpTool: afpTool, smbTool: smbTool, nfsTool: nfsTool}
	}

	prompter := opts.Prompter
	if prompter == nil {
		prompter = NewTerminalPrompter()
	}

	kmounter := opts.SysMounter
	if kmounter == nil {
		kmounter = kmount.New("")
	}

	return &Manager{
		mounter:  mounter,
		prompter: prompter,
		kmounter: kmounter,
		native:   native,
	}
}

// Native reports whether the native mount facility was available at probe
// time.
func (m *Manager) Native() bool {
	return m.native
}

// Mount attempts a single non-interactive mount of shareURL. It returns the
// live mount point, *AuthNeededError when the share wants credentials, or
// *MountFailedError on any other failure.
func (m *Manager) Mount(ctx context.Context, shareURL, target string) (string, error) {
	return m.mounter.Mount(ctx, shareURL, target)
}

// MountWithCredentials mounts shareURL supplying credentials explicitly.
// Any failure, authentication included, is a *MountFailedError; this path
// has no further fallback.
func (m *Manager) MountWithCredentials(ctx context.Context, shareURL, target, username, password string) (string, error) {
	return m.mounter.MountWithCredentials(ctx, shareURL, target, username, password)
}

// MountInteractive mounts shareURL, prompting for a username and password on
// the controlling terminal when the first attempt reports that
// authentication is needed. This is the only operation that performs
// interactive I/O.
func (m *Manager) MountInteractive(ctx context.Context, shareURL, target string) (string, error) {
	mountpoint, err := m.mounter.Mount(ctx, shareURL, target)

	var authErr *AuthNeededError
	if errors.As(err, &authErr) {
		username, password, promptErr := m.prompter.Credentials()
		if promptErr != nil {
			return "", &MountFailedError{URL: shareURL, Reason: promptErr.Error()}
		}
		return m.mounter.MountWithCredentials(ctx, shareURL, target, username, password)
	}

	return mountpoint, err
}

// IsMounted reports whether path is a live mount point. A missing path is
// simply not mounted.
func (m *Manager) IsMounted(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}

	notMounted, err := m.kmounter.IsLikelyNotMountPoint(path)
	if err != nil {
		return false, err
	}

	return !notMounted, nil
}

// Unmount detaches the share mounted at path. Unmounting a path that is not
// a mount point is a no-op. The repository never unmounts on its own; this
// is offered to callers that created the mount (see FileRepo.WeMountedRepo)
// and want to clean up on teardown.
func (m *Manager) Unmount(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mounted, err := m.IsMounted(path)
	if err != nil {
		return err
	}
	if !mounted {
		return nil
	}

	return m.kmounter.Unmount(path)
}

package mount

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/depotfs/depotfs/internal/logger"
)

// ExecCommand is the subprocess entry point used by the external-command
// mounter. Tests substitute it to capture the selected tool and arguments.
var ExecCommand = exec.CommandContext

// Default external mount tool locations.
const (
	DefaultAFPTool = "/sbin/mount_afp"
	DefaultSMBTool = "/sbin/mount_smbfs"
	DefaultNFSTool = "/sbin/mount_nfs"
)

// commandMounter mounts shares by invoking the scheme-appropriate external
// mount tool as a child process. It is the fallback used on hosts without
// the native mount facility.
//
// Tool argument conventions differ by scheme: the AFP tool accepts the full
// URL behind its -i flag, while the SMB and NFS tools expect a bare
// host/path with the scheme prefix stripped.
type commandMounter struct {
	afpTool string
	smbTool string
	nfsTool string
}

func (m *commandMounter) Mount(ctx context.Context, shareURL, target string) (string, error) {
	var argv []string
	switch {
	case strings.HasPrefix(shareURL, "afp:"):
		argv = []string{m.afpTool, "-i", shareURL, target}
	case strings.HasPrefix(shareURL, "smb:"):
		argv = []string{m.smbTool, stripScheme(shareURL), target}
	case strings.HasPrefix(shareURL, "nfs:"):
		argv = []string{m.nfsTool, stripScheme(shareURL), target}
	default:
		return "", &MountFailedError{URL: shareURL, Reason: "unsupported filesystem URL"}
	}

	// The target directory is created for the mount and removed again if
	// the mount command fails, so a failed attempt leaves no trace.
	created := false
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := os.MkdirAll(target, 0755); err != nil {
			return "", &MountFailedError{URL: shareURL, Reason: err.Error()}
		}
		created = true
	}

	logger.Debug("running mount command: %s", strings.Join(argv, " "))

	cmd := ExecCommand(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if created {
			if rmErr := os.Remove(target); rmErr != nil {
				logger.Warn("could not remove mount directory %s: %v", target, rmErr)
			}
		}

		reason := strings.TrimSpace(string(out))
		if reason == "" {
			reason = err.Error()
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &MountFailedError{URL: shareURL, Code: int32(exitErr.ExitCode()), Reason: reason}
		}
		return "", &MountFailedError{URL: shareURL, Reason: reason}
	}

	return target, nil
}

// MountWithCredentials is not available on the external-command path; the
// tools either read credentials interactively themselves or not at all.
func (m *commandMounter) MountWithCredentials(_ context.Context, shareURL, _, _, _ string) (string, error) {
	return "", &MountFailedError{URL: shareURL, Reason: "external mount commands do not accept credentials"}
}

// stripScheme removes the scheme prefix from a share URL, returning the bare
// host/path form the SMB and NFS mount tools expect.
func stripScheme(shareURL string) string {
	if i := strings.Index(shareURL, "://"); i >= 0 {
		return shareURL[i+3:]
	}
	if i := strings.Index(shareURL, ":"); i >= 0 {
		return shareURL[i+1:]
	}
	return shareURL
}

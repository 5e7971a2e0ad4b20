// Package file implements the repository contract over a local directory
// or a network file share that is mounted on first use.
package file

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/depotfs/depotfs/internal/logger"
	"github.com/depotfs/depotfs/pkg/mount"
	"github.com/depotfs/depotfs/pkg/repo"
)

// ShareMounter is the slice of the mount manager the repository needs:
// mounting a share on connect and detaching it again on disconnect.
// *mount.Manager satisfies it; tests inject fakes.
type ShareMounter interface {
	MountInteractive(ctx context.Context, shareURL, target string) (string, error)
	Unmount(ctx context.Context, path string) error
}

// RepoURL is the base URL parsed once at construction.
type RepoURL struct {
	// Scheme is "file", "afp", "smb", "nfs", or whatever else the URL
	// carried. Non-file schemes go through the mount manager.
	Scheme string

	// Raw is the original URL string, passed verbatim to mount attempts.
	Raw string

	// CandidateRoot is where the repository is expected to appear: the
	// URL path itself for file URLs, or a path under the conventional
	// mount root for share URLs. The actual root after a native mount
	// may differ.
	CandidateRoot string
}

// ParseRepoURL parses a repository base URL and derives its candidate root.
func ParseRepoURL(baseURL, volumesDir string) (RepoURL, error) {
	if baseURL == "" {
		return RepoURL{}, fmt.Errorf("repository URL is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return RepoURL{}, fmt.Errorf("invalid repository URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" {
		return RepoURL{}, fmt.Errorf("repository URL %q has no scheme", baseURL)
	}

	if volumesDir == "" {
		volumesDir = mount.DefaultVolumesDir
	}

	parsed := RepoURL{Scheme: u.Scheme, Raw: baseURL}
	if u.Scheme == "file" {
		parsed.CandidateRoot = u.Path
	} else {
		parsed.CandidateRoot = filepath.Join(volumesDir, u.Path)
	}

	return parsed, nil
}

// Config configures a FileRepo.
type Config struct {
	// BaseURL locates the repository: a file: URL for a local directory,
	// or an afp:/smb:/nfs: share URL that must be mounted.
	BaseURL string

	// VolumesDir overrides the conventional mount root (default
	// /Volumes) under which share candidate roots are derived.
	VolumesDir string

	// Mounter overrides the mount manager. Defaults to a manager bound
	// to the best available mount mechanism on this host.
	Mounter ShareMounter
}

// FileRepo handles a local filesystem repository, or one reached through a
// file share mounted on connect.
type FileRepo struct {
	url           RepoURL
	root          string
	weMountedRepo bool
	mounter       ShareMounter
}

// New parses the base URL and prepares a repository. No I/O happens until
// Connect.
func New(cfg Config) (*FileRepo, error) {
	parsed, err := ParseRepoURL(cfg.BaseURL, cfg.VolumesDir)
	if err != nil {
		return nil, err
	}

	mounter := cfg.Mounter
	if mounter == nil {
		mounter = mount.NewManager(mount.Options{})
	}

	return &FileRepo{
		url:     parsed,
		root:    parsed.CandidateRoot,
		mounter: mounter,
	}, nil
}

// Connect makes the repository root reachable.
//
// When the root already exists on disk this is a no-op, so repeated calls
// are cheap and safe. file: URLs never trigger a mount. For share URLs the
// mount manager's interactive flow is attempted; a mount failure is logged
// and swallowed here because the decision rests with the final existence
// check: if the root still does not exist afterwards, the error is
// ErrRootUnavailable and every item operation would fail anyway.
//
// On a successful mount the root is reassigned to the reported mount point
// (which may differ from the candidate) and the repository remembers that
// it performed the mount (WeMountedRepo) so Disconnect can unmount on
// teardown.
func (r *FileRepo) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(r.root); err == nil {
		return nil
	}

	if r.url.Scheme != "file" {
		logger.Info("attempting to mount fileshare %s", r.url.Raw)

		mountpoint, err := r.mounter.MountInteractive(ctx, r.url.Raw, r.url.CandidateRoot)
		if err != nil {
			logger.Warn("mount of %s failed: %v", r.url.Raw, err)
		} else {
			r.root = mountpoint
			r.weMountedRepo = true
		}
	}

	// Mount attempt complete; check again for the root.
	if _, err := os.Stat(r.root); err != nil {
		return fmt.Errorf("root %s does not exist: %w", r.root, repo.ErrRootUnavailable)
	}

	return nil
}

// Disconnect detaches the share when this instance performed the mount;
// a root that was already present (or a file: URL) is left untouched.
// After a successful unmount the ownership flag is cleared, so repeated
// calls are no-ops. On unmount failure ownership is retained and the call
// can be retried.
func (r *FileRepo) Disconnect(ctx context.Context) error {
	if !r.weMountedRepo {
		return nil
	}

	logger.Info("unmounting fileshare at %s", r.root)
	if err := r.mounter.Unmount(ctx, r.root); err != nil {
		return fmt.Errorf("failed to unmount %s: %w", r.root, err)
	}

	r.weMountedRepo = false
	return nil
}

// Root returns the current repository root. Meaningful after a successful
// Connect.
func (r *FileRepo) Root() string {
	return r.root
}

// WeMountedRepo reports whether this instance performed the mount, as
// opposed to finding the root already present. Disconnect consults it to
// decide whether to unmount; the repository never unmounts on its own.
func (r *FileRepo) WeMountedRepo() bool {
	return r.weMountedRepo
}

// URL returns the parsed base URL.
func (r *FileRepo) URL() RepoURL {
	return r.url
}

// itemPath validates the identifier and joins it under the root.
func (r *FileRepo) itemPath(identifier string) (string, error) {
	if err := repo.ValidateIdentifier(identifier); err != nil {
		return "", err
	}
	return filepath.Join(r.root, filepath.FromSlash(identifier)), nil
}

// List returns the relative paths of all regular files under root/kind.
// A missing kind directory yields an empty list, never an error.
func (r *FileRepo) List(ctx context.Context, kind string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchDir, err := r.itemPath(kind)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(searchDir); err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", searchDir, err)
	}

	items := []string{}
	err = filepath.WalkDir(searchDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(searchDir, path)
		if err != nil {
			return err
		}
		items = append(items, strings.TrimPrefix(rel, string(filepath.Separator)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	return items, nil
}

// Get returns the full content of the item. Avoid for very large items
// such as packages; prefer GetToFile.
func (r *FileRepo) Get(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := r.itemPath(identifier)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to read item %s: %w", identifier, err)
	}

	return data, nil
}

// GetToFile copies the item to localPath, overwriting any existing file.
func (r *FileRepo) GetToFile(ctx context.Context, identifier, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.itemPath(identifier)
	if err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
		}
		return fmt.Errorf("failed to open item %s: %w", identifier, err)
	}
	defer src.Close()

	return copyToFile(src, localPath)
}

// Put stores content under the identifier, creating missing parent
// directories. The write overwrites in place and is not atomic: a crash
// mid-write leaves a truncated item.
func (r *FileRepo) Put(ctx context.Context, identifier string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.itemPath(identifier)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", identifier, err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write item %s: %w", identifier, err)
	}

	return nil
}

// PutFromFile copies the file at localPath into the repository under the
// identifier, with the same directory-creation contract as Put.
func (r *FileRepo) PutFromFile(ctx context.Context, identifier, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.itemPath(identifier)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", identifier, err)
	}

	return copyToFile(src, path)
}

// Delete removes the item. Deleting a missing item is an error.
func (r *FileRepo) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.itemPath(identifier)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
		}
		return fmt.Errorf("failed to delete item %s: %w", identifier, err)
	}

	return nil
}

// copyToFile writes everything from src to a freshly truncated file at
// path.
func copyToFile(src io.Reader, path string) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy to %s: %w", path, err)
	}

	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

// Compile-time interface check.
var _ repo.Repo = (*FileRepo)(nil)

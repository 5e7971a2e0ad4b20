package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/depotfs/depotfs/pkg/mount"
	"github.com/depotfs/depotfs/pkg/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMounter stands in for the mount manager. It can create the directory
// it reports, mimicking a successful mount.
type fakeMounter struct {
	mountpoint string
	createDir  bool
	err        error
	calls      int

	unmounted  []string
	unmountErr error
}

func (f *fakeMounter) MountInteractive(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.createDir {
		if err := os.MkdirAll(f.mountpoint, 0755); err != nil {
			return "", err
		}
	}
	return f.mountpoint, nil
}

func (f *fakeMounter) Unmount(_ context.Context, path string) error {
	if f.unmountErr != nil {
		return f.unmountErr
	}
	f.unmounted = append(f.unmounted, path)
	return nil
}

// newLocalRepo returns a connected FileRepo over a fresh temp directory.
func newLocalRepo(t *testing.T) *FileRepo {
	t.Helper()

	dir := t.TempDir()
	mounter := &fakeMounter{}
	r, err := New(Config{BaseURL: "file://" + dir, Mounter: mounter})
	require.NoError(t, err)
	require.NoError(t, r.Connect(context.Background()))
	require.Zero(t, mounter.calls, "file scheme must never mount")

	return r
}

func TestParseRepoURL(t *testing.T) {
	parsed, err := ParseRepoURL("file:///tmp/repo", "")
	require.NoError(t, err)
	assert.Equal(t, "file", parsed.Scheme)
	assert.Equal(t, "/tmp/repo", parsed.CandidateRoot)

	parsed, err = ParseRepoURL("smb://server/share/subdir", "/Volumes")
	require.NoError(t, err)
	assert.Equal(t, "smb", parsed.Scheme)
	assert.Equal(t, "smb://server/share/subdir", parsed.Raw)
	assert.Equal(t, filepath.Join("/Volumes", "share", "subdir"), parsed.CandidateRoot)

	_, err = ParseRepoURL("", "")
	assert.Error(t, err)

	_, err = ParseRepoURL("/no/scheme", "")
	assert.Error(t, err)
}

func TestConnect_FileSchemeExistingRoot(t *testing.T) {
	dir := t.TempDir()
	mounter := &fakeMounter{}
	r, err := New(Config{BaseURL: "file://" + dir, Mounter: mounter})
	require.NoError(t, err)

	require.NoError(t, r.Connect(context.Background()))
	require.NoError(t, r.Connect(context.Background()))

	assert.Zero(t, mounter.calls)
	assert.False(t, r.WeMountedRepo())
	assert.Equal(t, dir, r.Root())
}

func TestConnect_FileSchemeMissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	mounter := &fakeMounter{}
	r, err := New(Config{BaseURL: "file://" + missing, Mounter: mounter})
	require.NoError(t, err)

	err = r.Connect(context.Background())
	require.ErrorIs(t, err, repo.ErrRootUnavailable)
	assert.Zero(t, mounter.calls)
}

func TestConnect_MountSuccess(t *testing.T) {
	volumes := t.TempDir()
	mountpoint := filepath.Join(volumes, "depot_repo")
	mounter := &fakeMounter{mountpoint: mountpoint, createDir: true}

	r, err := New(Config{
		BaseURL:    "smb://server/depot_repo",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)

	require.NoError(t, r.Connect(context.Background()))
	assert.Equal(t, 1, mounter.calls)
	assert.True(t, r.WeMountedRepo())
	assert.Equal(t, mountpoint, r.Root())

	// Once the root exists, connect is a no-op.
	require.NoError(t, r.Connect(context.Background()))
	assert.Equal(t, 1, mounter.calls)
}

func TestConnect_MountReturnsDifferentPath(t *testing.T) {
	volumes := t.TempDir()
	// The native mount may pick its own mount point, e.g. appending -1
	// when the candidate is taken.
	actual := filepath.Join(volumes, "depot_repo-1")
	mounter := &fakeMounter{mountpoint: actual, createDir: true}

	r, err := New(Config{
		BaseURL:    "afp://server/depot_repo",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)

	require.NoError(t, r.Connect(context.Background()))
	assert.Equal(t, actual, r.Root())
	assert.True(t, r.WeMountedRepo())
}

func TestConnect_MountFailureEscalates(t *testing.T) {
	volumes := t.TempDir()
	mounter := &fakeMounter{err: &mount.MountFailedError{URL: "smb://server/share", Reason: "no route to host"}}

	r, err := New(Config{
		BaseURL:    "smb://server/share",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)

	// The mount failure itself is soft; the missing root is what fails.
	err = r.Connect(context.Background())
	require.ErrorIs(t, err, repo.ErrRootUnavailable)
	assert.Equal(t, 1, mounter.calls)
	assert.False(t, r.WeMountedRepo())
}

func TestConnect_PreexistingShareRoot(t *testing.T) {
	volumes := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(volumes, "share"), 0755))
	mounter := &fakeMounter{}

	r, err := New(Config{
		BaseURL:    "smb://server/share",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)

	require.NoError(t, r.Connect(context.Background()))
	assert.Zero(t, mounter.calls)
	assert.False(t, r.WeMountedRepo())
}

func TestDisconnect_UnmountsOwnMount(t *testing.T) {
	volumes := t.TempDir()
	mountpoint := filepath.Join(volumes, "depot_repo")
	mounter := &fakeMounter{mountpoint: mountpoint, createDir: true}

	r, err := New(Config{
		BaseURL:    "smb://server/depot_repo",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)
	require.NoError(t, r.Connect(context.Background()))
	require.True(t, r.WeMountedRepo())

	require.NoError(t, r.Disconnect(context.Background()))
	assert.Equal(t, []string{mountpoint}, mounter.unmounted)
	assert.False(t, r.WeMountedRepo())

	// Ownership was released; a second disconnect does nothing.
	require.NoError(t, r.Disconnect(context.Background()))
	assert.Len(t, mounter.unmounted, 1)
}

func TestDisconnect_LeavesForeignMountAlone(t *testing.T) {
	volumes := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(volumes, "share"), 0755))
	mounter := &fakeMounter{}

	r, err := New(Config{
		BaseURL:    "smb://server/share",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)
	require.NoError(t, r.Connect(context.Background()))
	require.False(t, r.WeMountedRepo())

	// The root was already there, so it is not ours to unmount.
	require.NoError(t, r.Disconnect(context.Background()))
	assert.Empty(t, mounter.unmounted)
}

func TestDisconnect_UnmountFailureRetainsOwnership(t *testing.T) {
	volumes := t.TempDir()
	mountpoint := filepath.Join(volumes, "depot_repo")
	mounter := &fakeMounter{mountpoint: mountpoint, createDir: true}

	r, err := New(Config{
		BaseURL:    "smb://server/depot_repo",
		VolumesDir: volumes,
		Mounter:    mounter,
	})
	require.NoError(t, err)
	require.NoError(t, r.Connect(context.Background()))

	mounter.unmountErr = errors.New("resource busy")
	assert.Error(t, r.Disconnect(context.Background()))
	assert.True(t, r.WeMountedRepo(), "a failed unmount must stay retryable")
}

func TestPutGetRoundTrip(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	content := []byte(`{"catalogs": ["production"]}`)
	require.NoError(t, r.Put(ctx, "manifests/site_default", content))

	got, err := r.Get(ctx, "manifests/site_default")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	items, err := r.List(ctx, "manifests")
	require.NoError(t, err)
	assert.Equal(t, []string{"site_default"}, items)
}

func TestPutCreatesParentDirectories(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "pkgsinfo/apps/Firefox-52.0.plist", []byte("plist")))

	items, err := r.List(ctx, "pkgsinfo")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("apps", "Firefox-52.0.plist")}, items)
}

func TestPutOverwrites(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "catalogs/all", []byte("old")))
	require.NoError(t, r.Put(ctx, "catalogs/all", []byte("new and longer")))

	got, err := r.Get(ctx, "catalogs/all")
	require.NoError(t, err)
	assert.Equal(t, []byte("new and longer"), got)
}

func TestDelete(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "icons/Firefox.png", []byte("png")))
	require.NoError(t, r.Delete(ctx, "icons/Firefox.png"))

	_, err := r.Get(ctx, "icons/Firefox.png")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)

	err = r.Delete(ctx, "icons/Firefox.png")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func TestGetMissingItem(t *testing.T) {
	r := newLocalRepo(t)

	_, err := r.Get(context.Background(), "manifests/missing")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func TestList_MissingKindIsEmpty(t *testing.T) {
	r := newLocalRepo(t)

	items, err := r.List(context.Background(), "pkgs")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestList_RelativePathsOnly(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "pkgs/apps/firefox/Firefox-52.0.dmg", []byte("dmg")))
	require.NoError(t, r.Put(ctx, "pkgs/GoogleChrome.dmg", []byte("dmg")))

	items, err := r.List(ctx, "pkgs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join("apps", "firefox", "Firefox-52.0.dmg"),
		"GoogleChrome.dmg",
	}, items)

	for _, item := range items {
		assert.False(t, filepath.IsAbs(item))
		assert.NotEqual(t, byte(filepath.Separator), item[0])
	}
}

func TestList_SkipsDirectories(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "manifests/groups/developers", []byte("m")))

	items, err := r.List(ctx, "manifests")
	require.NoError(t, err)
	// Only the regular file, not the "groups" directory entry.
	assert.Equal(t, []string{filepath.Join("groups", "developers")}, items)
}

func TestGetToFileAndPutFromFile(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "Firefox-52.0.dmg")
	require.NoError(t, os.WriteFile(local, []byte("disk image"), 0644))

	require.NoError(t, r.PutFromFile(ctx, "pkgs/Firefox-52.0.dmg", local))

	dest := filepath.Join(t.TempDir(), "copy.dmg")
	// Pre-populate the destination to verify the overwrite contract.
	require.NoError(t, os.WriteFile(dest, []byte("stale leftover data"), 0644))
	require.NoError(t, r.GetToFile(ctx, "pkgs/Firefox-52.0.dmg", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("disk image"), got)
}

func TestGetToFile_MissingItem(t *testing.T) {
	r := newLocalRepo(t)

	dest := filepath.Join(t.TempDir(), "out")
	err := r.GetToFile(context.Background(), "pkgs/missing.dmg", dest)
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func TestIdentifierValidation(t *testing.T) {
	r := newLocalRepo(t)
	ctx := context.Background()

	bad := []string{
		"",
		"/etc/passwd",
		"../outside",
		"manifests/../../outside",
	}

	for _, identifier := range bad {
		assert.ErrorIs(t, r.Put(ctx, identifier, []byte("x")), repo.ErrInvalidIdentifier, "put %q", identifier)
		_, err := r.Get(ctx, identifier)
		assert.ErrorIs(t, err, repo.ErrInvalidIdentifier, "get %q", identifier)
		assert.ErrorIs(t, r.Delete(ctx, identifier), repo.ErrInvalidIdentifier, "delete %q", identifier)
	}

	// Internal ".." that stays inside the root is fine.
	assert.NoError(t, r.Put(ctx, "manifests/../catalogs/all", []byte("ok")))
}

func TestOperations_CancelledContext(t *testing.T) {
	r := newLocalRepo(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, r.Put(ctx, "catalogs/all", []byte("x")))
	_, err := r.List(ctx, "catalogs")
	assert.Error(t, err)
}

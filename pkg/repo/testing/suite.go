// Package testing provides a reusable contract test suite for Repo
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against the file backend and, under the
// integration tag, against a real object store.
package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/depotfs/depotfs/pkg/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepoTestSuite exercises the Repo contract.
//
// Usage:
//
//	suite := &repotesting.RepoTestSuite{
//	    NewRepo: func(t *testing.T) repo.Repo { ... },
//	}
//	suite.Run(t)
type RepoTestSuite struct {
	// NewRepo returns a fresh, connected repository for each test.
	NewRepo func(t *testing.T) repo.Repo
}

// Run executes all tests in the suite.
func (suite *RepoTestSuite) Run(t *testing.T) {
	t.Run("RoundTrip", suite.testRoundTrip)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("DeleteThenGet", suite.testDeleteThenGet)
	t.Run("DeleteMissing", suite.testDeleteMissing)
	t.Run("GetMissing", suite.testGetMissing)
	t.Run("ListMissingKind", suite.testListMissingKind)
	t.Run("ListNested", suite.testListNested)
	t.Run("LocalFileTransfer", suite.testLocalFileTransfer)
	t.Run("InvalidIdentifiers", suite.testInvalidIdentifiers)
	t.Run("ConnectIdempotent", suite.testConnectIdempotent)
}

func (suite *RepoTestSuite) testRoundTrip(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	content := []byte(`{"display_name": "Firefox"}`)
	require.NoError(t, r.Put(ctx, "pkgsinfo/Firefox-52.0.plist", content))

	got, err := r.Get(ctx, "pkgsinfo/Firefox-52.0.plist")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func (suite *RepoTestSuite) testOverwrite(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "catalogs/testing", []byte("first")))
	require.NoError(t, r.Put(ctx, "catalogs/testing", []byte("second, longer version")))

	got, err := r.Get(ctx, "catalogs/testing")
	require.NoError(t, err)
	assert.Equal(t, []byte("second, longer version"), got)
}

func (suite *RepoTestSuite) testDeleteThenGet(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Put(ctx, "manifests/site_default", []byte("{}")))
	require.NoError(t, r.Delete(ctx, "manifests/site_default"))

	_, err := r.Get(ctx, "manifests/site_default")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func (suite *RepoTestSuite) testDeleteMissing(t *testing.T) {
	r := suite.NewRepo(t)

	err := r.Delete(context.Background(), "manifests/never_existed")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func (suite *RepoTestSuite) testGetMissing(t *testing.T) {
	r := suite.NewRepo(t)

	_, err := r.Get(context.Background(), "icons/never_existed.png")
	assert.ErrorIs(t, err, repo.ErrItemNotFound)
}

func (suite *RepoTestSuite) testListMissingKind(t *testing.T) {
	r := suite.NewRepo(t)

	items, err := r.List(context.Background(), "no_such_kind")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func (suite *RepoTestSuite) testListNested(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	put := []string{
		"manifests/site_default",
		"manifests/groups/developers",
		"manifests/groups/designers",
	}
	for _, identifier := range put {
		require.NoError(t, r.Put(ctx, identifier, []byte("{}")))
	}

	items, err := r.List(ctx, "manifests")
	require.NoError(t, err)
	require.Len(t, items, len(put))

	for _, item := range items {
		assert.NotEmpty(t, item)
		assert.NotEqual(t, "/", item[:1])
	}
}

func (suite *RepoTestSuite) testLocalFileTransfer(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "payload.dmg")
	require.NoError(t, os.WriteFile(local, []byte("payload bytes"), 0644))

	require.NoError(t, r.PutFromFile(ctx, "pkgs/payload.dmg", local))

	dest := filepath.Join(t.TempDir(), "fetched.dmg")
	require.NoError(t, r.GetToFile(ctx, "pkgs/payload.dmg", dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload bytes"), got)
}

func (suite *RepoTestSuite) testInvalidIdentifiers(t *testing.T) {
	r := suite.NewRepo(t)
	ctx := context.Background()

	for i, identifier := range []string{"", "/absolute", "../escape"} {
		err := r.Put(ctx, identifier, []byte("x"))
		assert.ErrorIs(t, err, repo.ErrInvalidIdentifier, fmt.Sprintf("case %d: %q", i, identifier))
	}
}

func (suite *RepoTestSuite) testConnectIdempotent(t *testing.T) {
	r := suite.NewRepo(t)

	require.NoError(t, r.Connect(context.Background()))
	require.NoError(t, r.Connect(context.Background()))
}

// Package repo defines the uniform repository contract for a
// software-deployment catalog: named resources (catalogs, manifests,
// pkgsinfo records, packages, icons) addressed by relative-path
// identifiers, stored under some backing root.
//
// Implementations live in sub-packages: pkg/repo/file works against a local
// directory or a mounted network share, pkg/repo/s3 against an object
// storage bucket. Callers pick an implementation through pkg/config.
package repo

import "context"

// Repo is the uniform access contract shared by all repository backends.
//
// Identifiers are relative paths, conventionally prefixed by a kind segment
// (e.g. "manifests/site_default"). The kind itself is opaque to the
// implementations; the conventional top-level kinds are "catalogs",
// "manifests", "pkgsinfo", "pkgs" and "icons".
//
// All operations are synchronous and blocking. The context is honored for
// cancellation before and, where the backend supports it, during I/O.
type Repo interface {
	// Connect establishes the repository root. It is idempotent: once the
	// root is reachable, further calls are no-ops. It returns
	// ErrRootUnavailable (wrapped) when the root cannot be established.
	Connect(ctx context.Context) error

	// List returns the identifiers of every item of the given kind,
	// relative to the kind directory, with no leading separator and in no
	// guaranteed order. A kind that does not exist yields an empty list,
	// never an error.
	List(ctx context.Context, kind string) ([]string, error)

	// Get returns the full content of the item. Avoid it for very large
	// items such as packages; prefer GetToFile.
	Get(ctx context.Context, identifier string) ([]byte, error)

	// GetToFile copies the item byte-for-byte to localPath, overwriting
	// any existing file there.
	GetToFile(ctx context.Context, identifier, localPath string) error

	// Put stores content under the identifier, creating any missing
	// intermediate directories and overwriting an existing item. The
	// write is not atomic.
	Put(ctx context.Context, identifier string, content []byte) error

	// PutFromFile copies the file at localPath into the repository under
	// the identifier, with the same directory-creation contract as Put.
	PutFromFile(ctx context.Context, identifier, localPath string) error

	// Delete removes the item. Deleting a missing item returns
	// ErrItemNotFound (wrapped).
	Delete(ctx context.Context, identifier string) error
}

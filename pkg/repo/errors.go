package repo

import "errors"

// Standard repository errors shared by all backends. Implementations wrap
// them with context:
//
//	return fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
//
// so callers can test with errors.Is while still seeing which item failed.
var (
	// ErrItemNotFound indicates the identifier names no existing item.
	// Returned by Get, GetToFile and Delete.
	ErrItemNotFound = errors.New("item not found")

	// ErrRootUnavailable indicates the repository root could not be
	// established: the directory does not exist after all mount attempts,
	// or the bucket is unreachable. Fatal for the repository instance;
	// item operations will keep failing until Connect succeeds.
	ErrRootUnavailable = errors.New("repository root unavailable")

	// ErrInvalidIdentifier indicates the identifier is empty, absolute,
	// or would escape the repository root via ".." segments.
	ErrInvalidIdentifier = errors.New("invalid resource identifier")
)

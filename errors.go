// errors.go re-exports the sentinel errors so callers can classify failures
// with errors.Is without importing internal packages.

package docgraph

import "github.com/jpl-au/docgraph/internal/validate"

var (
	// ErrNotFound marks an unknown document id, entity, or revision.
	ErrNotFound = validate.ErrNotFound
	// ErrInvalidArgument marks malformed or out-of-range input.
	ErrInvalidArgument = validate.ErrInvalidArgument
	// ErrConflict marks a failed optimistic version check on update.
	ErrConflict = validate.ErrConflict
	// ErrPreconditionFailed marks an operation whose referenced state is
	// missing, such as a relation naming an absent entity.
	ErrPreconditionFailed = validate.ErrPreconditionFailed
	// ErrUnavailable marks a disabled optional capability.
	ErrUnavailable = validate.ErrUnavailable
	// ErrInternal marks an I/O or version-store failure.
	ErrInternal = validate.ErrInternal
)

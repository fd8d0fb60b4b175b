// errors.go defines sentinel errors shared across the docgraph packages.
//
// Separated to centralise error definitions. These errors are used with
// errors.Is() for type-safe error checking. Each error represents a
// distinct failure category that callers may want to branch on.
//
// Design: Sentinel errors (not error types) because failures don't carry
// additional context beyond the category. Detailed messages are provided
// by wrapping these with fmt.Errorf at the call site.

package validate

import "errors"

var (
	// ErrNotFound indicates an unknown document id, entity, or revision.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed input: bad frontmatter, an
	// empty required field, or an out-of-range traversal depth.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict indicates an optimistic version check failed on update.
	// Clients are expected to refresh and retry.
	ErrConflict = errors.New("conflict")
	// ErrPreconditionFailed indicates a relation referenced a missing
	// entity or a duplicate entity was submitted for explicit insert.
	ErrPreconditionFailed = errors.New("precondition failed")
	// ErrUnavailable indicates an optional capability is disabled, such
	// as semantic search without an embedding model.
	ErrUnavailable = errors.New("unavailable")
	// ErrInternal indicates an I/O or version-store failure mid-transaction.
	ErrInternal = errors.New("internal error")
)

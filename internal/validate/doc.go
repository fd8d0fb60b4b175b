// Package validate provides input validation and the sentinel errors used
// throughout docgraph. Validation lives in one package so that the document
// service, graph store, and facade all reject bad input the same way.
package validate

import (
	"fmt"
	"strings"
)

// DocumentTypes is the closed set of document classifications.
var DocumentTypes = []string{"manuscript", "documentation", "dataset", "webpage", "generic"}

// DocumentType checks that t is a member of the closed classification set.
func DocumentType(t string) error {
	for _, known := range DocumentTypes {
		if t == known {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown document type %q", ErrInvalidArgument, t)
}

// Title checks that a document title is non-empty and single-line.
// Frontmatter stores the title on one line, so embedded newlines would
// corrupt the block for every subsequent reader.
func Title(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	if strings.ContainsAny(title, "\r\n") {
		return fmt.Errorf("%w: title must be a single line", ErrInvalidArgument)
	}
	return nil
}

// DocumentID checks that id has the doc_<unix>_<8-hex> shape.
func DocumentID(id string) error {
	rest, ok := strings.CutPrefix(id, "doc_")
	if !ok {
		return fmt.Errorf("%w: malformed document id %q", ErrInvalidArgument, id)
	}
	secs, hex, ok := strings.Cut(rest, "_")
	if !ok || secs == "" || len(hex) != 8 {
		return fmt.Errorf("%w: malformed document id %q", ErrInvalidArgument, id)
	}
	for _, r := range secs {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: malformed document id %q", ErrInvalidArgument, id)
		}
	}
	for _, r := range hex {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("%w: malformed document id %q", ErrInvalidArgument, id)
		}
	}
	return nil
}

// EntityName checks that a graph entity name is non-empty.
func EntityName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: entity name is required", ErrInvalidArgument)
	}
	return nil
}

// Depth checks that a traversal depth is within [0, max].
func Depth(depth, max int) error {
	if depth < 0 || depth > max {
		return fmt.Errorf("%w: depth must be between 0 and %d, got %d", ErrInvalidArgument, max, depth)
	}
	return nil
}

// Metadata checks that frontmatter-bound metadata stays on one line. Keys
// and scalar string values are rendered as `key: value` lines, where an
// embedded newline would terminate the block early and leak the remainder
// into the body on re-parse.
func Metadata(metadata map[string]any) error {
	for k, v := range metadata {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%w: empty metadata key", ErrInvalidArgument)
		}
		if strings.ContainsAny(k, ":\r\n") {
			return fmt.Errorf("%w: metadata key %q contains reserved characters", ErrInvalidArgument, k)
		}
		if s, ok := v.(string); ok && strings.ContainsAny(s, "\r\n") {
			return fmt.Errorf("%w: metadata value for %q must be a single line", ErrInvalidArgument, k)
		}
	}
	return nil
}

// Tags checks every tag is non-empty and free of the characters that would
// break the CSV frontmatter encoding.
func Tags(tags []string) error {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: empty tag", ErrInvalidArgument)
		}
		if strings.ContainsAny(tag, ",\r\n") {
			return fmt.Errorf("%w: tag %q contains reserved characters", ErrInvalidArgument, tag)
		}
	}
	return nil
}

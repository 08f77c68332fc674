// Package bookerr defines the error kinds raised by the tree, the file
// managers, and the collaborator API that sits on top of them.
package bookerr

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors. Callers distinguish kinds with errors.Is, never by
// matching error strings.
var (
	// ErrDuplicateKey is returned when inserting a code already present
	// in the tree.
	ErrDuplicateKey = errors.New("bookerr: duplicate key")

	// ErrNotFound is returned when looking up or removing a code that
	// is not present in the tree.
	ErrNotFound = errors.New("bookerr: not found")

	// ErrCorruptIndex is returned when a structural invariant is
	// violated on load: an out-of-range child offset, an nKeys outside
	// {1, 2}, or a free-list cycle.
	ErrCorruptIndex = errors.New("bookerr: corrupt index")
)

// DuplicateKey wraps ErrDuplicateKey with the offending key.
func DuplicateKey(key int32) error {
	return errors.Wrapf(ErrDuplicateKey, "key %d already present", key)
}

// NotFound wraps ErrNotFound with the missing key.
func NotFound(key int32) error {
	return errors.Wrapf(ErrNotFound, "key %d not found", key)
}

// CorruptIndex wraps ErrCorruptIndex with the offset and reason the
// structural check failed at.
func CorruptIndex(offset int32, reason string) error {
	return errors.Wrapf(ErrCorruptIndex, "offset %d: %s", offset, reason)
}

// IoError wraps an underlying I/O failure (read/write/seek) with the
// operation that triggered it. The symbol keeps the kind's spelling,
// IoError, rather than Go's usual IOError initialism.
func IoError(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "io error during %s", op)
}

// IsDuplicateKey reports whether err is (or wraps) ErrDuplicateKey.
func IsDuplicateKey(err error) bool { return errors.Is(err, ErrDuplicateKey) }

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsCorruptIndex reports whether err is (or wraps) ErrCorruptIndex.
func IsCorruptIndex(err error) bool { return errors.Is(err, ErrCorruptIndex) }

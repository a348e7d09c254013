// Package store defines the error taxonomy shared by every repository
// backed by the practice's document-style record store. The store itself
// only guarantees single-record atomicity; cross-collection consistency
// is maintained by the synchronization and integrity services on top.
package store

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied is returned when a record exists but belongs
	// to a different osteopath than the caller.
	ErrPermissionDenied = errors.New("record belongs to another osteopath")

	// ErrReferenceNotFound is returned when a write names a patient
	// that does not exist at write time.
	ErrReferenceNotFound = errors.New("referenced patient not found")

	// ErrUnavailable is returned when the backing store cannot be
	// reached. Callers own any retry policy; repositories make a
	// single attempt.
	ErrUnavailable = errors.New("record store unavailable")
)

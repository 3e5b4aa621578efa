package storage

import "errors"

// Sentinel errors shared by every store implementation. The stores are
// append-only: records are never updated in place, so a key collision is
// always a caller bug or a replayed run.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")
	ErrInvalidInput = errors.New("invalid input")
)

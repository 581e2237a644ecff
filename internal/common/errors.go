// Package common defines shared sentinel errors and small helpers used across
// the timekeeper store, services and CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrStoreInit  = errors.New("store initialization failed")
	ErrStoreWrite = errors.New("store write failed")
	ErrStoreRead  = errors.New("store read failed")

	// Encryption state errors.
	ErrNotAuthenticated = errors.New("not authenticated: password required")
	ErrAlreadyEncrypted = errors.New("encryption already enabled")
	ErrSweepIncomplete  = errors.New("sweep incomplete")

	// Backup errors.
	ErrImport = errors.New("import failed")

	// Validation errors raised by entity services.
	ErrValidation = errors.New("validation error")
)

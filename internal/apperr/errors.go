// Package apperr holds the sentinel errors shared across services and
// transports.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrReadOnly      = errors.New("note is read-only")

	// ErrStorage marks a failed save. The in-memory change was rolled back.
	ErrStorage = errors.New("storage unavailable")
	// ErrImportFormat is returned for a file that cannot be decoded.
	ErrImportFormat = errors.New("corrupted or invalid file")
	// ErrUnsupportedFormat is returned for unknown import or export formats.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

package domain

import "errors"

// Sentinel errors for library operations
var (
	// ErrNotFound indicates a blob or descriptor does not exist
	ErrNotFound = errors.New("asset not found")

	// ErrQuotaExceeded indicates durable storage is full
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrFileTooLarge indicates a single file exceeds the configured ceiling
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrInvalidEntry indicates a malformed descriptor or share entry
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrTransfer indicates ingestion of a shared batch failed outright
	ErrTransfer = errors.New("share transfer failed")
)

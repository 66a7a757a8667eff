package domain

import "errors"

var (
	// Normalization errors
	ErrMalformedRecord = errors.New("malformed record")
	ErrUnknownFormat   = errors.New("no source profile matches header")

	// Connector errors
	ErrSourceUnavailable = errors.New("source unavailable")

	// Store errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountNotFound     = errors.New("account not found")

	// Sync errors
	ErrSyncInProgress = errors.New("sync already in progress for provider")
)

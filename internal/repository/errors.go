package repository

import "errors"

var (
	// ErrStorageUnavailable means the store could not be reached or a
	// connection could not be acquired. Nothing was written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrWriteFailed means a write statement or its commit failed and the
	// transaction was rolled back.
	ErrWriteFailed = errors.New("write failed")
)

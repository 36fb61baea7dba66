package models

import "errors"

var (
	ErrInputInvalid     = errors.New("invalid input")
	ErrConflict         = errors.New("slot already occupied")
	ErrQuotaExceeded    = errors.New("booking quota exceeded")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnsupported      = errors.New("not yet supported")
	ErrPartialWrite     = errors.New("partial write")
	ErrAlreadyJoined    = errors.New("already joined")
)

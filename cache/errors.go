package cache

import "errors"

var (
	ErrNotInitialized = errors.New("cache: redis client not initialized")
	ErrPartyNotFound  = errors.New("cache: party not found")
	ErrIndexRange     = errors.New("cache: index out of range")
	ErrConflict       = errors.New("cache: concurrent update, retry")
)

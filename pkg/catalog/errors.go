package catalog

import "errors"

// Sentinel errors returned by Catalog implementations. Orchestrator-level
// callers map these onto the error kinds in spec §7.
var (
	ErrNotFound       = errors.New("catalog: record not found")
	ErrDuplicateName  = errors.New("catalog: name already live in scope")
	ErrShareNotFound  = errors.New("catalog: share token not found")
	ErrNotADirectory  = errors.New("catalog: record is not a directory")
	ErrAlreadyLocked  = errors.New("catalog: record already locked")
	ErrNotLocked      = errors.New("catalog: record not locked")
	ErrConcurrentMove = errors.New("catalog: concurrent move invalidated this operation")
)

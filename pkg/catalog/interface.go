package catalog

import "context"

// Catalog is the authoritative store for logical file records (spec §4.3).
// Implementations must support atomic multi-row updates for directory moves,
// because renaming or moving a directory touches every descendant's
// ParentPath in the same transaction.
//
// "Live" means IsDeleted == false throughout this interface's docs.
type Catalog interface {
	// InsertFile persists a new record. Callers are responsible for having
	// already resolved uniqueness (FindLiveByScope) or SOX versioning before
	// calling this — InsertFile itself still enforces name uniqueness as a
	// last defense and returns ErrDuplicateName if violated. When rec's
	// ParentVersion is set, the referenced predecessor is exempt from that
	// check: it is the live record this one is about to supersede.
	InsertFile(ctx context.Context, rec *Record) error

	// SetImmutable flips a record's IsImmutable flag in place, without
	// touching any other field. Used to close out a SOX version chain once
	// its successor has been inserted. Idempotent.
	SetImmutable(ctx context.Context, id string) error

	// FindLiveByScope is the uniqueness probe for a given name in scope and
	// the basis for auto-rename. A record with IsImmutable set is a
	// superseded SOX version and is excluded even though it's still live,
	// so this only ever returns the record currently occupying the name.
	// Returns ErrNotFound if no live, mutable record matches.
	FindLiveByScope(ctx context.Context, tenantID string, departmentID *string, parentPath string, visibility Visibility, name string) (*Record, error)

	// FindLiveByHash is the dedup probe (spec §4.2 step 5): any live,
	// non-directory record in the same (tenant, department) scope whose
	// content hash matches.
	FindLiveByHash(ctx context.Context, tenantID string, departmentID *string, hash string) (*Record, error)

	// GetByID fetches a record regardless of soft-delete state.
	GetByID(ctx context.Context, id string) (*Record, error)

	// ListChildren returns direct live children of a directory path, plus an
	// aggregate derived size for live directory descendants (directory
	// size is computed at query time, never stored).
	ListChildren(ctx context.Context, tenantID string, departmentID *string, parentPath string, visibility *Visibility) ([]Record, error)

	// ListLiveDescendants returns every live, non-directory record whose
	// ParentPath is the given directory path or nested under it — the set
	// packed by directory download (spec §4.6.a).
	ListLiveDescendants(ctx context.Context, dirRecordID string) ([]Record, error)

	// MarkDeleted soft-deletes a single record.
	MarkDeleted(ctx context.Context, id string) error

	// MarkDeletedDescendants soft-deletes a record and, transactionally,
	// every live descendant beneath pathPrefix (spec §4.6 soft-delete).
	MarkDeletedDescendants(ctx context.Context, id string, pathPrefix string) error

	// Restore is the inverse of MarkDeleted. Restoring a child does not
	// resurrect ancestors (spec §4.6).
	Restore(ctx context.Context, id string) error
	RestoreDescendants(ctx context.Context, id string, pathPrefix string) error

	// Rename changes a record's Name. For directories, implementations must
	// also rewrite every descendant's ParentPath in the same transaction.
	Rename(ctx context.Context, id string, newName string) error

	// Move changes a record's ParentPath/DepartmentID/Visibility/OwnerID.
	// For directories, every descendant's ParentPath is rewritten in the
	// same transaction.
	Move(ctx context.Context, id string, newParentPath string, newDepartmentID *string, newVisibility Visibility, newOwnerID *string) error

	// SetLock / ClearLock manage the single stateful resource in the system
	// (spec §4.6 "State machines"). Re-entry leaves the record unchanged:
	// SetLock on a locked record returns ErrAlreadyLocked, and ClearLock on
	// an unlocked record returns ErrNotLocked.
	SetLock(ctx context.Context, id string, lock LockState) error
	ClearLock(ctx context.Context, id string) error

	// RefCountLiveByHash counts live records in scope sharing hash, excluding
	// excludingID — the input to C2's reference-counted delete (spec §4.2).
	RefCountLiveByHash(ctx context.Context, tenantID string, departmentID *string, hash string, excludingID string) (int, error)

	// HardDelete removes the catalog row outright. Only called by the
	// orchestrator after computing the ref count (spec §4.6 permanent-delete).
	HardDelete(ctx context.Context, id string) error

	// Healthcheck reports catalog connectivity/latency.
	Healthcheck(ctx context.Context) error
}

// ShareStore persists share tokens (spec §3 "Share token", §4.7).
type ShareStore interface {
	CreateShare(ctx context.Context, share *ShareToken) error
	GetShareByToken(ctx context.Context, token string) (*ShareToken, error)
	IncrementDownloads(ctx context.Context, shareID string) error
	DeleteShare(ctx context.Context, id string) error
}

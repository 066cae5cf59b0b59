// Package catalog defines the authoritative metadata catalog (spec §4.3, C3):
// the mapping from logical file identity to immutable content key, plus lock
// state, soft-delete state, and the audit invariants in spec §3.
package catalog

import "time"

// Visibility controls whether a record is reachable by department membership
// or only by its owner.
type Visibility string

const (
	VisibilityDepartment Visibility = "department"
	VisibilityPrivate    Visibility = "private"
)

// LockState is embedded in a Record and mirrored on directory (group) records
// unlocked implies every other field is zero.
type LockState struct {
	IsLocked     bool
	LockerID     string
	LockedAt     *time.Time
	PasswordHash string // argon2 hash, empty if no password gate
	RequiredRole string // empty if no role gate
}

// Unlocked reports whether the lock state is fully cleared.
func (l LockState) Unlocked() bool {
	return !l.IsLocked && l.LockerID == "" && l.LockedAt == nil && l.PasswordHash == "" && l.RequiredRole == ""
}

// Record is the logical file record described in spec §3: identified by an
// opaque, time-ordered ID, scoped to (tenant, department), addressed by a
// parent-path name chain rather than a folder ID (spec §9 design note).
type Record struct {
	ID       string
	TenantID string

	DepartmentID *string // nil = company-wide
	ParentPath   string  // slash-joined name chain, not a folder ID
	Name         string

	SizeBytes uint64
	MediaType string
	IsDir     bool

	OwnerID    string
	Visibility Visibility

	Version       int
	ParentVersion *string
	IsImmutable   bool

	ContentHash string // empty for directories
	StorageKey  string // empty for directories

	IsDeleted bool
	DeletedAt *time.Time

	Lock LockState

	IsCompanyFolder bool
	GroupID         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectivePath returns the directory's own path contribution, i.e. the
// value descendants should see as their ParentPath prefix (spec §4.3).
func (r Record) EffectivePath() string {
	if r.ParentPath == "" {
		return r.Name
	}
	return r.ParentPath + "/" + r.Name
}

// Scope identifies the dedup/quota boundary: content is never deduplicated
// across tenants or across departments within a tenant (spec glossary).
type Scope struct {
	TenantID     string
	DepartmentID *string
}

// DeptScope returns the department component used in backend keys:
// "private" when the record has no department, matching spec §6's
// {tenant}/{dept-or-"private"}/{hash-prefix}/{hash} layout.
func (s Scope) DeptScope() string {
	if s.DepartmentID == nil || *s.DepartmentID == "" {
		return "private"
	}
	return *s.DepartmentID
}

// ShareToken is the persisted record behind a share link (spec §3 "Share
// token" and §4.7).
type ShareToken struct {
	ID         string
	TenantID   string
	RecordID   string
	Token      string
	CreatorID  string
	IsPublic   bool
	ExpiresAt  *time.Time
	Downloads  uint64
	Policy     SharePolicy
	SharedWith *string // actor ID, optional

	PasswordHash string

	CreatedAt time.Time
}

// SharePolicy controls how a share is redeemed (spec §4.7).
type SharePolicy string

const (
	SharePolicyPermissioned SharePolicy = "permissioned" // default, most secure
	SharePolicyTenantWide   SharePolicy = "tenant_wide"
)

// Expired reports whether the share has passed its expiry, if any.
func (s ShareToken) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

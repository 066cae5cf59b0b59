// Package access implements the pure access decision engine (spec §4.4,
// C4): a single function from (actor, resource, action) to allow/deny, with
// no I/O of its own. Callers supply the tenant compliance mode; the engine
// never reaches into the catalog or tenant-config projection directly.
package access

// Role is a base role label. Custom role labels carried on an Actor map to
// one of these for ranking purposes (spec §4.4 "Role rank").
type Role string

const (
	RoleSuperAdmin Role = "super-admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleEmployee   Role = "employee"
	RoleOther      Role = "other"
)

// rank gives the fixed total order super-admin > admin > manager > employee
// > other. Unrecognized labels rank as RoleOther.
var rank = map[Role]int{
	RoleSuperAdmin: 4,
	RoleAdmin:      3,
	RoleManager:    2,
	RoleEmployee:   1,
	RoleOther:      0,
}

func (r Role) rank() int {
	if v, ok := rank[r]; ok {
		return v
	}
	return rank[RoleOther]
}

// RoleRank exposes the role's position in the fixed total order to callers
// outside the engine (the orchestrator's lock state machine needs it for
// the unlock-role-gate check, which duplicates rule 3 outside of Decide).
func RoleRank(r Role) int { return r.rank() }

// Permission is an explicit grant a custom role may additionally carry
// (spec §4.4: "files.lock", "files.unlock" satisfy rule 3 as manager-tier).
type Permission string

const (
	PermissionFilesLock   Permission = "files.lock"
	PermissionFilesUnlock Permission = "files.unlock"
)

// Action is the operation being authorized.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// ComplianceMode is the per-tenant overlay read from the cached projection
// (spec §4.4 rule 6, §9). Modes are additive: a tenant can be in more than
// one at once.
type ComplianceMode struct {
	BlocksPublicShares bool // tenant-wide share policy forbids is_public=true shares
	SOXImmutable       bool // delete of an immutable (versioned) record is always denied
}

// Actor is the identity requesting access (spec §4.4).
type Actor struct {
	ID                      string
	TenantID                string
	Role                    Role
	DepartmentID            *string
	AdditionalDepartmentIDs []string
	Permissions             []Permission
}

func (a Actor) hasPermission(p Permission) bool {
	for _, got := range a.Permissions {
		if got == p {
			return true
		}
	}
	return false
}

func (a Actor) allowedInDepartment(deptID string) bool {
	if a.DepartmentID != nil && *a.DepartmentID == deptID {
		return true
	}
	for _, d := range a.AdditionalDepartmentIDs {
		if d == deptID {
			return true
		}
	}
	return false
}

// Resource is the protected object (spec §4.4).
type Resource struct {
	TenantID     string
	Visibility   Visibility
	OwnerID      string
	DepartmentID *string // nil = company-wide

	IsLocked         bool
	LockerID         string
	RequiredRole     Role
	LockPasswordHash string // empty if no password gate
	IsImmutable      bool   // SOX versioning has frozen this record

	IsPublicShare bool // only meaningful when Action == share
}

// Visibility mirrors catalog.Visibility without importing pkg/catalog, so
// the access engine stays dependency-free (it is meant to be unit tested in
// total isolation from storage).
type Visibility string

const (
	VisibilityDepartment Visibility = "department"
	VisibilityPrivate    Visibility = "private"
)

// Decision is the engine's verdict, with the first failing rule recorded for
// audit logging and API error messages.
type Decision struct {
	Allow  bool
	Reason string
}

func deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }

var allow = Decision{Allow: true, Reason: "allow"}

package access

// Decide evaluates the rules of spec §4.4 in order. The first rule that
// fails produces a deny; allow requires every applicable rule to pass.
// Decide performs no I/O: compliance mode and permission tokens must
// already be resolved by the caller (the orchestrator, via tenantconfig).
func Decide(actor Actor, resource Resource, action Action, mode ComplianceMode) Decision {
	// Rule 1: tenant isolation.
	if actor.TenantID != resource.TenantID && actor.Role != RoleSuperAdmin {
		return deny("tenant isolation")
	}

	isPlatformAdmin := actor.Role == RoleSuperAdmin || actor.Role == RoleAdmin

	// Rule 2: platform admin bypass, with its own two carve-outs.
	if isPlatformAdmin {
		if resource.IsLocked && resource.RequiredRole != "" && !meetsLockRoleGate(actor, resource.RequiredRole) {
			return deny("locked: admin role below required-role gate")
		}
		if d := complianceOverlay(action, resource, mode); !d.Allow {
			return d
		}
		if action == ActionShare {
			if d := actionTightening(actor, resource, action); !d.Allow {
				return d
			}
		}
		return allow
	}

	// Rule 3: lock gate.
	if resource.IsLocked {
		isLocker := actor.ID == resource.LockerID
		isOwner := actor.ID == resource.OwnerID
		if !isLocker && !isOwner && !meetsLockRoleGate(actor, resource.RequiredRole) {
			return deny("locked: actor is neither locker, owner, nor role-gated")
		}
		// The read path never accepts a password; a password gate only
		// constrains the unlock path, handled by the orchestrator's lock
		// state machine, not here.
	}

	// Rule 4: visibility.
	if resource.Visibility == VisibilityPrivate {
		if actor.ID != resource.OwnerID {
			return deny("private resource: actor is not owner")
		}
	} else {
		// Rule 5: department, only reached for non-private resources.
		if resource.DepartmentID != nil {
			if !actor.allowedInDepartment(*resource.DepartmentID) {
				return deny("department: actor not a member and not additionally allowed")
			}
		}
	}

	// Rule 6: compliance overlay.
	if d := complianceOverlay(action, resource, mode); !d.Allow {
		return d
	}

	// Rule 7: action-specific tightening.
	if d := actionTightening(actor, resource, action); !d.Allow {
		return d
	}

	return allow
}

// meetsLockRoleGate reports whether actor satisfies resource's required-role
// gate, either by role rank or by an explicit files.lock/files.unlock
// permission token acting as manager-tier (spec §4.4 "Role rank").
func meetsLockRoleGate(actor Actor, requiredRole Role) bool {
	if requiredRole == "" {
		return true
	}
	if actor.Role.rank() >= requiredRole.rank() {
		return true
	}
	if actor.hasPermission(PermissionFilesLock) || actor.hasPermission(PermissionFilesUnlock) {
		return RoleManager.rank() >= requiredRole.rank()
	}
	return false
}

func complianceOverlay(action Action, resource Resource, mode ComplianceMode) Decision {
	if action == ActionShare && mode.BlocksPublicShares && resource.IsPublicShare {
		return deny("compliance: tenant blocks public shares")
	}
	// SOX immutability wins unconditionally: a record frozen by version
	// retention is never deletable, regardless of the tenant's current
	// compliance mode or any GDPR-erasure request on the actor side.
	if action == ActionDelete && resource.IsImmutable {
		return deny("compliance: record is SOX-immutable")
	}
	return allow
}

func actionTightening(actor Actor, resource Resource, action Action) Decision {
	if action != ActionShare {
		return allow
	}
	if actor.ID == resource.OwnerID {
		return allow
	}
	switch actor.Role {
	case RoleManager, RoleAdmin, RoleSuperAdmin:
		return allow
	default:
		return deny("share requires owner or manager-tier role")
	}
}

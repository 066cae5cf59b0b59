package access

import "testing"

func strp(s string) *string { return &s }

func TestDecide_TenantIsolation(t *testing.T) {
	actor := Actor{ID: "u1", TenantID: "t1", Role: RoleEmployee}
	resource := Resource{TenantID: "t2", Visibility: VisibilityDepartment}

	got := Decide(actor, resource, ActionRead, ComplianceMode{})
	if got.Allow {
		t.Fatalf("expected deny across tenants, got allow")
	}

	actor.Role = RoleSuperAdmin
	got = Decide(actor, resource, ActionRead, ComplianceMode{})
	if !got.Allow {
		t.Fatalf("expected super-admin to bypass tenant isolation, got deny: %s", got.Reason)
	}
}

func TestDecide_AdminBypassRespectsLockRoleGate(t *testing.T) {
	actor := Actor{ID: "u1", TenantID: "t1", Role: RoleAdmin}
	resource := Resource{
		TenantID: "t1", Visibility: VisibilityDepartment,
		IsLocked: true, LockerID: "u2", RequiredRole: RoleSuperAdmin,
	}

	got := Decide(actor, resource, ActionRead, ComplianceMode{})
	if got.Allow {
		t.Fatalf("expected admin below required-role gate to be denied")
	}
}

func TestDecide_LockGateOwnerAndLockerPass(t *testing.T) {
	resource := Resource{
		TenantID: "t1", Visibility: VisibilityDepartment, OwnerID: "owner",
		IsLocked: true, LockerID: "locker", RequiredRole: RoleManager,
	}

	owner := Actor{ID: "owner", TenantID: "t1", Role: RoleEmployee}
	if got := Decide(owner, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("owner should pass lock gate: %s", got.Reason)
	}

	locker := Actor{ID: "locker", TenantID: "t1", Role: RoleEmployee}
	if got := Decide(locker, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("locker should pass lock gate: %s", got.Reason)
	}

	stranger := Actor{ID: "stranger", TenantID: "t1", Role: RoleEmployee}
	if got := Decide(stranger, resource, ActionRead, ComplianceMode{}); got.Allow {
		t.Fatalf("stranger below required role should be denied")
	}
}

func TestDecide_LockGatePermissionTokenActsAsManager(t *testing.T) {
	resource := Resource{
		TenantID: "t1", Visibility: VisibilityDepartment,
		IsLocked: true, LockerID: "someone-else", RequiredRole: RoleManager,
	}
	actor := Actor{
		ID: "u1", TenantID: "t1", Role: RoleEmployee,
		Permissions: []Permission{PermissionFilesUnlock},
	}
	if got := Decide(actor, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("files.unlock permission should satisfy manager-tier gate: %s", got.Reason)
	}
}

func TestDecide_VisibilityPrivate(t *testing.T) {
	resource := Resource{TenantID: "t1", Visibility: VisibilityPrivate, OwnerID: "owner"}

	owner := Actor{ID: "owner", TenantID: "t1", Role: RoleEmployee}
	if got := Decide(owner, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("owner should read own private resource: %s", got.Reason)
	}

	other := Actor{ID: "other", TenantID: "t1", Role: RoleEmployee}
	if got := Decide(other, resource, ActionRead, ComplianceMode{}); got.Allow {
		t.Fatalf("non-owner should be denied private resource")
	}
}

func TestDecide_Department(t *testing.T) {
	resource := Resource{TenantID: "t1", Visibility: VisibilityDepartment, DepartmentID: strp("eng")}

	member := Actor{ID: "u1", TenantID: "t1", Role: RoleEmployee, DepartmentID: strp("eng")}
	if got := Decide(member, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("department member should be allowed: %s", got.Reason)
	}

	additional := Actor{ID: "u2", TenantID: "t1", Role: RoleEmployee, DepartmentID: strp("sales"), AdditionalDepartmentIDs: []string{"eng"}}
	if got := Decide(additional, resource, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("additionally-allowed department should be allowed: %s", got.Reason)
	}

	outsider := Actor{ID: "u3", TenantID: "t1", Role: RoleEmployee, DepartmentID: strp("sales")}
	if got := Decide(outsider, resource, ActionRead, ComplianceMode{}); got.Allow {
		t.Fatalf("outsider department should be denied")
	}

	companyWide := Resource{TenantID: "t1", Visibility: VisibilityDepartment, DepartmentID: nil}
	if got := Decide(outsider, companyWide, ActionRead, ComplianceMode{}); !got.Allow {
		t.Fatalf("company-wide (nil department) resource should be allowed: %s", got.Reason)
	}
}

func TestDecide_ComplianceOverlayBlocksPublicShare(t *testing.T) {
	actor := Actor{ID: "owner", TenantID: "t1", Role: RoleEmployee}
	resource := Resource{TenantID: "t1", Visibility: VisibilityPrivate, OwnerID: "owner", IsPublicShare: true}

	got := Decide(actor, resource, ActionShare, ComplianceMode{BlocksPublicShares: true})
	if got.Allow {
		t.Fatalf("expected public share to be blocked by compliance overlay")
	}

	got = Decide(actor, resource, ActionShare, ComplianceMode{BlocksPublicShares: false})
	if !got.Allow {
		t.Fatalf("expected public share to be allowed without overlay: %s", got.Reason)
	}
}

func TestDecide_SOXImmutableBlocksDelete(t *testing.T) {
	actor := Actor{ID: "owner", TenantID: "t1", Role: RoleAdmin}
	resource := Resource{TenantID: "t1", Visibility: VisibilityPrivate, OwnerID: "owner", IsImmutable: true}

	got := Decide(actor, resource, ActionDelete, ComplianceMode{SOXImmutable: true})
	if got.Allow {
		t.Fatalf("expected SOX-immutable delete to be denied even for admin")
	}

	// Immutability wins regardless of the tenant's current compliance mode
	// flag: a record frozen by version retention stays frozen even if SOX
	// mode is later toggled off or a GDPR-erasure request targets it.
	got = Decide(actor, resource, ActionDelete, ComplianceMode{SOXImmutable: false})
	if got.Allow {
		t.Fatalf("expected SOX-immutable delete to be denied regardless of compliance mode")
	}
}

func TestDecide_ShareRequiresOwnerOrManagerTier(t *testing.T) {
	resource := Resource{TenantID: "t1", Visibility: VisibilityDepartment, OwnerID: "owner", DepartmentID: strp("eng")}

	employee := Actor{ID: "u1", TenantID: "t1", Role: RoleEmployee, DepartmentID: strp("eng")}
	if got := Decide(employee, resource, ActionShare, ComplianceMode{}); got.Allow {
		t.Fatalf("non-owner employee should not be able to share")
	}

	manager := Actor{ID: "u2", TenantID: "t1", Role: RoleManager, DepartmentID: strp("eng")}
	if got := Decide(manager, resource, ActionShare, ComplianceMode{}); !got.Allow {
		t.Fatalf("manager should be able to share: %s", got.Reason)
	}

	owner := Actor{ID: "owner", TenantID: "t1", Role: RoleEmployee, DepartmentID: strp("eng")}
	if got := Decide(owner, resource, ActionShare, ComplianceMode{}); !got.Allow {
		t.Fatalf("owner should always be able to share: %s", got.Reason)
	}
}

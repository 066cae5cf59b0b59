// Package auth verifies inbound bearer tokens for the CoreVault HTTP
// surface. Issuing tokens is out of scope (spec §1): CoreVault trusts an
// upstream identity provider's signature and only turns its claims into an
// access.Actor.
package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/mladen4o/ClovaLink/pkg/access"
)

// Claims is the shape CoreVault expects an upstream-issued access token to
// carry. Field names mirror access.Actor so the mapping in ToActor is a
// straight copy.
type Claims struct {
	jwt.RegisteredClaims

	UserID                  string   `json:"uid"`
	TenantID                string   `json:"tenant_id"`
	Role                    string   `json:"role"`
	DepartmentID            string   `json:"department_id,omitempty"`
	AdditionalDepartmentIDs []string `json:"additional_department_ids,omitempty"`
	Permissions             []string `json:"permissions,omitempty"`
}

// ToActor projects verified claims onto the access engine's identity shape.
// An empty DepartmentID means company-wide, matching access.Actor's nil
// convention.
func (c *Claims) ToActor() access.Actor {
	var deptID *string
	if c.DepartmentID != "" {
		deptID = &c.DepartmentID
	}

	perms := make([]access.Permission, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		perms = append(perms, access.Permission(p))
	}

	return access.Actor{
		ID:                      c.UserID,
		TenantID:                c.TenantID,
		Role:                    access.Role(c.Role),
		DepartmentID:            deptID,
		AdditionalDepartmentIDs: c.AdditionalDepartmentIDs,
		Permissions:             perms,
	}
}

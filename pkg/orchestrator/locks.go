package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/secrethash"
)

// LockRequest carries the optional password/required-role gate (spec §6
// "lock | record id, optional password, optional required role").
type LockRequest struct {
	RecordID     string
	Password     string // empty = no password gate
	RequiredRole access.Role
}

// Lock implements the Unlocked -> Locked transition of spec §4.6's state
// machine. Re-locking an already-locked record returns ErrAlreadyLocked
// rather than silently overwriting the existing lock.
func (o *Orchestrator) Lock(ctx context.Context, actor access.Actor, req LockRequest) error {
	rec, err := o.loadLive(ctx, req.RecordID)
	if err != nil {
		return err
	}
	if err := o.decide(ctx, actor, rec, access.ActionWrite, false); err != nil {
		return err
	}

	lock := catalog.LockState{
		IsLocked:     true,
		LockerID:     actor.ID,
		RequiredRole: string(req.RequiredRole),
	}
	if req.Password != "" {
		hash, err := secrethash.Hash(req.Password, secrethash.DefaultParams())
		if err != nil {
			return err
		}
		lock.PasswordHash = hash
	}
	now := time.Now()
	lock.LockedAt = &now

	if err := o.catalog.SetLock(ctx, req.RecordID, lock); err != nil {
		if errors.Is(err, catalog.ErrAlreadyLocked) {
			return ErrAlreadyLocked
		}
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "lock", req.RecordID, "")
	return nil
}

// UnlockRequest carries the optional password supplied out-of-band on the
// unlock path (spec §4.4 rule 3: "the read path does not accept
// passwords").
type UnlockRequest struct {
	RecordID string
	Password string
}

// Unlock implements the Locked -> Unlocked transition. Unlocking an
// already-unlocked record is a no-op success (spec §4.6: "unlock-while-
// unlocked returns a no-op").
func (o *Orchestrator) Unlock(ctx context.Context, actor access.Actor, req UnlockRequest) error {
	rec, err := o.loadLive(ctx, req.RecordID)
	if err != nil {
		return err
	}

	if !rec.Lock.IsLocked {
		return nil
	}

	isLockerOrOwner := actor.ID == rec.Lock.LockerID || actor.ID == rec.OwnerID
	roleOK := requiredRoleSatisfied(actor, rec.Lock.RequiredRole)
	if !isLockerOrOwner && !roleOK {
		return ErrForbidden
	}

	if rec.Lock.PasswordHash != "" && !isLockerOrOwner {
		if req.Password == "" {
			return ErrWrongPassword
		}
		ok, err := secrethash.Verify(req.Password, rec.Lock.PasswordHash)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWrongPassword
		}
	}

	if err := o.catalog.ClearLock(ctx, req.RecordID); err != nil {
		if errors.Is(err, catalog.ErrNotLocked) {
			return nil
		}
		return err
	}
	o.emitAudit(rec.TenantID, actor.ID, "unlock", req.RecordID, "")
	return nil
}

func requiredRoleSatisfied(actor access.Actor, requiredRole string) bool {
	if requiredRole == "" {
		return true
	}
	if access.RoleRank(actor.Role) >= access.RoleRank(access.Role(requiredRole)) {
		return true
	}
	for _, p := range actor.Permissions {
		if p == access.PermissionFilesLock || p == access.PermissionFilesUnlock {
			return access.RoleRank(access.RoleManager) >= access.RoleRank(access.Role(requiredRole))
		}
	}
	return false
}

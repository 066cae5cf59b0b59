package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func (s *Store) SetLock(ctx context.Context, id string, lock catalog.LockState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row fileRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrNotFound
			}
			return err
		}
		if row.IsLocked {
			return catalog.ErrAlreadyLocked
		}
		return tx.Model(&fileRow{}).Where("id = ?", id).Updates(map[string]any{
			"is_locked":      lock.IsLocked,
			"locker_id":      lock.LockerID,
			"locked_at":      lock.LockedAt,
			"lock_pass_hash": lock.PasswordHash,
			"lock_role":      lock.RequiredRole,
		}).Error
	})
}

func (s *Store) ClearLock(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row fileRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrNotFound
			}
			return err
		}
		if !row.IsLocked {
			return catalog.ErrNotLocked
		}
		return tx.Model(&fileRow{}).Where("id = ?", id).Updates(map[string]any{
			"is_locked":      false,
			"locker_id":      "",
			"locked_at":      nil,
			"lock_pass_hash": "",
			"lock_role":      "",
		}).Error
	})
}

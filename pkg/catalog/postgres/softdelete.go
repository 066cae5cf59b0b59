package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

func (s *Store) MarkDeleted(ctx context.Context, id string) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&fileRow{}).Where("id = ?", id).
		Updates(map[string]any{"is_deleted": true, "deleted_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// MarkDeletedDescendants soft-deletes id and, within one transaction, every
// live row whose parent_path falls under pathPrefix (spec §4.6).
func (s *Store) MarkDeletedDescendants(ctx context.Context, id string, pathPrefix string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&fileRow{}).Where("id = ?", id).
			Updates(map[string]any{"is_deleted": true, "deleted_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrNotFound
		}
		return tx.Model(&fileRow{}).
			Where("id <> ? AND is_deleted = ? AND (parent_path = ? OR parent_path LIKE ?)", id, false, pathPrefix, pathPrefix+"/%").
			Updates(map[string]any{"is_deleted": true, "deleted_at": now}).Error
	})
}

func (s *Store) Restore(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&fileRow{}).Where("id = ?", id).
		Updates(map[string]any{"is_deleted": false, "deleted_at": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) RestoreDescendants(ctx context.Context, id string, pathPrefix string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&fileRow{}).Where("id = ?", id).
			Updates(map[string]any{"is_deleted": false, "deleted_at": nil})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrNotFound
		}
		return tx.Model(&fileRow{}).
			Where("id <> ? AND (parent_path = ? OR parent_path LIKE ?)", id, pathPrefix, pathPrefix+"/%").
			Updates(map[string]any{"is_deleted": false, "deleted_at": nil}).Error
	})
}

package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// rewriteDescendants reads every live row nested under oldPrefix and rewrites
// its parent_path to the newPrefix equivalent, row by row, inside tx. GORM
// has no portable string-prefix-replace expression across SQLite/Postgres,
// so this walks the (already indexed) LIKE-prefix result set in Go, matching
// the descendant-rewrite a GORM-backed hierarchical store does for renamed
// parent groups.
func rewriteDescendants(tx *gorm.DB, id string, oldPrefix string, newPrefix string) error {
	if oldPrefix == newPrefix {
		return nil
	}
	var rows []fileRow
	if err := tx.Where("id <> ? AND (parent_path = ? OR parent_path LIKE ?)", id, oldPrefix, oldPrefix+"/%").
		Find(&rows).Error; err != nil {
		return err
	}
	for _, r := range rows {
		var newParent string
		if r.ParentPath == oldPrefix {
			newParent = newPrefix
		} else {
			newParent = newPrefix + strings.TrimPrefix(r.ParentPath, oldPrefix)
		}
		if err := tx.Model(&fileRow{}).Where("id = ?", r.ID).Update("parent_path", newParent).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Rename(ctx context.Context, id string, newName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row fileRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrNotFound
			}
			return err
		}
		oldEffective := toRecord(&row).EffectivePath()
		row.Name = newName
		if err := tx.Model(&fileRow{}).Where("id = ?", id).Update("name", newName).Error; err != nil {
			return err
		}
		if !row.IsDir {
			return nil
		}
		newEffective := toRecord(&row).EffectivePath()
		return rewriteDescendants(tx, id, oldEffective, newEffective)
	})
}

func (s *Store) Move(ctx context.Context, id string, newParentPath string, newDepartmentID *string, newVisibility catalog.Visibility, newOwnerID *string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row fileRow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return catalog.ErrNotFound
			}
			return err
		}
		oldEffective := toRecord(&row).EffectivePath()

		updates := map[string]any{
			"parent_path":   newParentPath,
			"department_id": newDepartmentID,
			"visibility":    string(newVisibility),
		}
		if newOwnerID != nil {
			updates["owner_id"] = *newOwnerID
		}
		if err := tx.Model(&fileRow{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if !row.IsDir {
			return nil
		}

		row.ParentPath = newParentPath
		newEffective := toRecord(&row).EffectivePath()
		return rewriteDescendants(tx, id, oldEffective, newEffective)
	})
}

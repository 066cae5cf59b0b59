// Package postgres implements catalog.Catalog and catalog.ShareStore on top
// of GORM, supporting both SQLite (single-node) and PostgreSQL (HA) via the
// same dual-dialector pattern used throughout this store.
package postgres

import "time"

// fileRow is the GORM row for files_metadata (spec §6 "Persisted state
// layout"). Indexes follow spec §4.3: (tenant, parent_path, visibility,
// is_deleted) for listing/uniqueness, (tenant, department, content_hash)
// for dedup.
type fileRow struct {
	ID       string `gorm:"primaryKey;size:36"`
	TenantID string `gorm:"size:36;index:idx_scope,priority:1;index:idx_hash_scope,priority:1"`

	DepartmentID *string `gorm:"size:36;index:idx_scope,priority:2;index:idx_hash_scope,priority:2"`
	ParentPath   string  `gorm:"index:idx_scope,priority:3"`
	Name         string  `gorm:"index:idx_scope,priority:5"`

	SizeBytes uint64
	MediaType string
	IsDir     bool

	OwnerID    string `gorm:"size:36"`
	Visibility string `gorm:"size:16;index:idx_scope,priority:4"`

	Version       int `gorm:"default:1"`
	ParentVersion *string
	IsImmutable   bool

	ContentHash string `gorm:"size:64;index:idx_hash_scope,priority:3"`
	StorageKey  string

	IsDeleted bool       `gorm:"index:idx_scope,priority:6"`
	DeletedAt *time.Time

	IsLocked     bool
	LockerID     string
	LockedAt     *time.Time
	LockPassHash string
	LockRole     string

	IsCompanyFolder bool
	GroupID         *string

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (fileRow) TableName() string { return "files_metadata" }

// shareRow is the GORM row for file_shares (spec §3 "Share token").
type shareRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	TenantID   string `gorm:"size:36;index"`
	RecordID   string `gorm:"size:36;index"`
	Token      string `gorm:"uniqueIndex;size:64"`
	CreatorID  string `gorm:"size:36"`
	IsPublic   bool
	ExpiresAt  *time.Time
	Downloads  uint64
	Policy     string `gorm:"size:32"`
	SharedWith *string
	PassHash   string

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (shareRow) TableName() string { return "file_shares" }

// AllModels lists every GORM model for AutoMigrate/migration generation.
func AllModels() []any {
	return []any{&fileRow{}, &shareRow{}}
}

// Package tenantconfig implements the "small, readable tenant-config
// projection" spec §4.4/§9 calls for: per-tenant compliance mode, blocked
// extensions, and quotas, cached outside the relational catalog so the
// access engine and upload path never pay a join for a value that changes
// rarely. Uses badger's transaction API directly (db.Update/db.View),
// storing JSON-encoded values under namespaced keys.
package tenantconfig

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/mladen4o/ClovaLink/pkg/access"
)

// Entry is the cached projection for one tenant (spec §4.4: "The engine
// reads the mode from a small cached projection; stale mode reads are
// acceptable because mode changes are rare").
type Entry struct {
	TenantID           string
	Compliance         access.ComplianceMode
	BlockedExtensions  []string
	MaxUploadSizeBytes uint64
	QuotaBytes         uint64
	QuotaUsedBytes     uint64
}

// RemainingQuota returns the bytes left before QuotaBytes is hit. A zero
// QuotaBytes means unlimited (spec §4.2 step 3 treats zero limits as
// disabled, mirrored by cas.Limits).
func (e Entry) RemainingQuota() uint64 {
	if e.QuotaBytes == 0 {
		return 0
	}
	if e.QuotaUsedBytes >= e.QuotaBytes {
		return 0
	}
	return e.QuotaBytes - e.QuotaUsedBytes
}

// BlocksExtension reports whether name's extension is on the tenant's
// blocked list (spec §4.6 upload: "emit a security alert and reject").
func (e Entry) BlocksExtension(ext string) bool {
	for _, b := range e.BlockedExtensions {
		if b == ext {
			return true
		}
	}
	return false
}

// Store is a badger-backed cache of Entry values keyed by tenant ID.
type Store struct {
	db *badger.DB
}

func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tenantconfig: open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func key(tenantID string) []byte {
	return []byte("tenantconfig/" + tenantID)
}

func (s *Store) Put(_ context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("tenantconfig: encode: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(entry.TenantID), data)
	})
}

// Get returns the cached entry for tenantID, or a zero-value Entry (no
// compliance overlays, no quota) if nothing has been cached yet — an
// unconfigured tenant defaults to the least restrictive projection, the
// catalog and access engine's own rules still apply.
func (s *Store) Get(_ context.Context, tenantID string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(tenantID))
		if err == badger.ErrKeyNotFound {
			entry = Entry{TenantID: tenantID}
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return Entry{}, fmt.Errorf("tenantconfig: get %s: %w", tenantID, err)
	}
	return entry, nil
}

func (s *Store) Delete(_ context.Context, tenantID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(tenantID))
	})
}

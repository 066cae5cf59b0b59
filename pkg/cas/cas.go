// Package cas implements the content-addressed store (spec §4.2, C2): the
// streaming ingest pipeline that turns a byte stream into a durable,
// deduplicated object and reports (hash, size, dedup-hit). Streams to a
// temp file under a BLAKE3 hasher before ever touching the backend.
package cas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/metrics"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
)

// Sentinel outcomes distinguished from generic I/O errors so the
// orchestrator can map them onto the right HTTP status (spec §4.2 step 3).
var (
	ErrQuotaExceeded = errors.New("cas: remaining storage quota exceeded")
	ErrTooLarge      = errors.New("cas: upload exceeds tenant max-upload-size")
)

// Limits are the two streaming checks enforced against running size, not
// final size, so a runaway upload is cut short mid-stream (spec §4.2 step 3).
type Limits struct {
	MaxUploadSize  uint64
	RemainingQuota uint64
}

// Result is C2's contract-level return value (spec §4.2: "(content-hash,
// size, dedup-hit-flag)").
type Result struct {
	ContentHash string
	SizeBytes   uint64
	DedupHit    bool
	StorageKey  string
}

// Store wires C1 (backend), C3 (catalog, for the dedup probe) and C5
// (scheduler, for the backend-write permit) into the ingest algorithm.
type Store struct {
	backend    backend.Backend
	catalog    catalog.Catalog
	scheduler  *scheduler.Scheduler
	scratchDir string
	metrics    *metrics.Metrics
}

func New(be backend.Backend, cat catalog.Catalog, sched *scheduler.Scheduler, scratchDir string) *Store {
	return &Store{backend: be, catalog: cat, scheduler: sched, scratchDir: scratchDir}
}

// SetMetrics wires a Prometheus collector in after construction.
func (s *Store) SetMetrics(m *metrics.Metrics) { s.metrics = m }

// BackendKey derives the content-addressed key (spec §4.2 step 4):
// {tenant}/{dept-or-"private"}/{hash[0:2]}/{hash}.
func BackendKey(scope catalog.Scope, hash string) string {
	prefix := hash
	if len(hash) >= 2 {
		prefix = hash[:2]
	}
	return fmt.Sprintf("%s/%s/%s/%s", scope.TenantID, scope.DeptScope(), prefix, hash)
}

// Ingest runs the full algorithm of spec §4.2: stream src to a scratch sink
// while hashing, enforce limits against the running size, probe the catalog
// for a dedup hit, and — on a miss — acquire a scheduler permit and commit
// to the backend. The scratch sink is removed on every exit path.
func (s *Store) Ingest(ctx context.Context, scope catalog.Scope, src io.Reader, limits Limits) (result Result, err error) {
	defer func() {
		if err != nil {
			s.metrics.ObserveUpload(metrics.ResultError, 0, false)
			return
		}
		s.metrics.ObserveUpload(metrics.ResultSuccess, result.SizeBytes, result.DedupHit)
	}()

	scratch, err := os.CreateTemp(s.scratchDir, "cas-ingest-*")
	if err != nil {
		return Result{}, fmt.Errorf("cas: create scratch sink: %w", err)
	}
	scratchPath := scratch.Name()
	defer func() {
		scratch.Close()
		os.Remove(scratchPath)
	}()

	hasher := blake3.New()
	var size uint64
	buf := make([]byte, 256*1024)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			size += uint64(n)
			if limits.MaxUploadSize > 0 && size > limits.MaxUploadSize {
				return Result{}, ErrTooLarge
			}
			if limits.RemainingQuota > 0 && size > limits.RemainingQuota {
				return Result{}, ErrQuotaExceeded
			}
			if _, err := hasher.Write(buf[:n]); err != nil {
				return Result{}, fmt.Errorf("cas: hash chunk: %w", err)
			}
			if _, err := scratch.Write(buf[:n]); err != nil {
				return Result{}, fmt.Errorf("cas: write scratch: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Result{}, fmt.Errorf("cas: read source: %w", readErr)
		}
	}

	sum := hasher.Sum(nil)
	hash := fmt.Sprintf("%x", sum)
	key := BackendKey(scope, hash)

	if existing, err := s.catalog.FindLiveByHash(ctx, scope.TenantID, scope.DepartmentID, hash); err == nil {
		return Result{ContentHash: hash, SizeBytes: size, DedupHit: true, StorageKey: existing.StorageKey}, nil
	} else if !errors.Is(err, catalog.ErrNotFound) {
		return Result{}, fmt.Errorf("cas: dedup probe: %w", err)
	}

	// The catalog has no live row for this hash, but the object may still
	// exist at its content-derived key — a crash between a prior backend
	// commit and its catalog insert leaves exactly that orphan. Reuse it
	// rather than writing the same bytes twice.
	if exists, err := s.backend.Exists(ctx, key); err != nil {
		return Result{}, fmt.Errorf("cas: backend existence probe: %w", err)
	} else if exists {
		return Result{ContentHash: hash, SizeBytes: size, DedupHit: true, StorageKey: key}, nil
	}

	permit, err := s.scheduler.AcquireUploadPermit(ctx, size)
	if err != nil {
		return Result{}, fmt.Errorf("cas: acquire upload permit: %w", err)
	}
	defer permit.Release()

	if err := scratch.Sync(); err != nil {
		return Result{}, fmt.Errorf("cas: sync scratch: %w", err)
	}
	if err := s.backend.PutFromPath(ctx, key, scratchPath); err != nil {
		return Result{}, fmt.Errorf("cas: backend put: %w", err)
	}

	return Result{ContentHash: hash, SizeBytes: size, DedupHit: false, StorageKey: key}, nil
}

// Delete implements the reference-counted delete of spec §4.2: the catalog
// row is assumed already removed by the caller (the orchestrator, inside
// its own transaction); Delete only decides whether the backend object can
// go too, based on the post-delete live reference count. A failed backend
// delete is returned as an error and the object stays in the backend as an
// orphan; future writes of the same content reuse it by key.
func (s *Store) Delete(ctx context.Context, scope catalog.Scope, hash string, deletedRecordID string, storageKey string) error {
	count, err := s.catalog.RefCountLiveByHash(ctx, scope.TenantID, scope.DepartmentID, hash, deletedRecordID)
	if err != nil {
		return fmt.Errorf("cas: ref count: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.backend.Delete(ctx, storageKey); err != nil {
		return fmt.Errorf("cas: backend delete (orphaned, will be swept): %w", err)
	}
	s.metrics.ObserveBackendObjectDeleted()
	return nil
}

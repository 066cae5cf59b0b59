// Package orchestrator implements the request orchestrator (spec §4.6, C6):
// it threads one request through C1-C5, owning the policy choices the
// lower components intentionally refuse to take (auto-rename vs SOX
// versioning, presigned-URL fallback, archive packing, lock state machine).
package orchestrator

import (
	"context"
	"io"
	"time"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// AuditSink records best-effort audit events; failures must never fail the
// originating request (spec §4.6 upload: "downstream failures must not
// fail the request"). The audit log sink itself is an external
// collaborator out of scope (spec §1); this is the narrow contract the
// Core calls into it through.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}

// AuditEvent is a best-effort, fire-and-forget record of a mutating
// operation.
type AuditEvent struct {
	TenantID  string
	ActorID   string
	Action    string
	RecordID  string
	Detail    string
	Timestamp time.Time
}

// JobQueue enqueues downstream work (replication, virus scanning,
// AI summarization) that the Core triggers but does not implement (spec
// §1, §4.6).
type JobQueue interface {
	Enqueue(ctx context.Context, job Job)
}

type Job struct {
	Kind     string // "replicate", "scan", "summarize"
	TenantID string
	RecordID string
}

// NoopAuditSink and NoopJobQueue satisfy the two collaborator interfaces
// when a deployment hasn't wired a real sink yet.
type NoopAuditSink struct{}

func (NoopAuditSink) Record(context.Context, AuditEvent) {}

type NoopJobQueue struct{}

func (NoopJobQueue) Enqueue(context.Context, Job) {}

// Config tunes orchestrator-owned policy knobs not delegated to C1-C5.
type Config struct {
	PresignedURLsEnabled bool
	PresignTTL           time.Duration
	CDNHost              string // optional host to rewrite presigned URLs onto
	MaxPackSizeBytes     uint64
	MaxAutoRenameProbes  int
}

func (c *Config) applyDefaults() {
	if c.PresignTTL == 0 {
		c.PresignTTL = 15 * time.Minute
	}
	if c.MaxPackSizeBytes == 0 {
		c.MaxPackSizeBytes = 500 << 20
	}
	if c.MaxAutoRenameProbes == 0 {
		c.MaxAutoRenameProbes = 20
	}
}

// recordToResource projects a catalog.Record into the access engine's
// Resource shape (spec §4.4); the orchestrator is the only layer that
// knows about both packages.
func recordToResource(rec *catalog.Record, isPublicShare bool) access.Resource {
	return access.Resource{
		TenantID:         rec.TenantID,
		Visibility:       access.Visibility(rec.Visibility),
		OwnerID:          rec.OwnerID,
		DepartmentID:     rec.DepartmentID,
		IsLocked:         rec.Lock.IsLocked,
		LockerID:         rec.Lock.LockerID,
		RequiredRole:     access.Role(rec.Lock.RequiredRole),
		LockPasswordHash: rec.Lock.PasswordHash,
		IsImmutable:      rec.IsImmutable,
		IsPublicShare:    isPublicShare,
	}
}

// DownloadResult is either a redirect to a presigned URL or a live byte
// stream; exactly one of Stream or RedirectURL is set (spec §7 "Redirects
// to presigned URLs are reported as such").
type DownloadResult struct {
	Record      *catalog.Record
	RedirectURL string
	Stream      io.ReadCloser
	SizeBytes   uint64
	IsRedirect  bool
}

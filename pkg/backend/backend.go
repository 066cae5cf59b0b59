// Package backend defines the object backend adapter contract (spec §4.1,
// C1): the thin, swappable interface over whichever object store actually
// holds bytes. Implementations live in pkg/backend/s3 and
// pkg/backend/localdir, plus an optional-capability pattern
// (SupportsPresignedURLs) for backends that can't presign.
package backend

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one entry returned by List.
type ObjectInfo struct {
	Key          string
	SizeBytes    uint64
	LastModified time.Time
	IsDir        bool
}

// Backend is the minimal contract every object store adapter must satisfy.
// Keys are opaque strings; C2 owns deriving them (spec §4.2 key layout).
type Backend interface {
	// Put uploads data read from r under key, returning once the object is
	// durably stored. sizeHint, if > 0, lets S3-backed implementations pick
	// between single-part PutObject and multipart upload without buffering.
	Put(ctx context.Context, key string, r io.Reader, sizeHint int64) error

	// PutFromPath uploads the file at localPath under key. Backends that can
	// stream directly from disk (avoiding a second buffer) should prefer
	// this over Put; localdir can just rename/copy.
	PutFromPath(ctx context.Context, key string, localPath string) error

	// Get reads the full object into memory. Callers in the hot path should
	// prefer GetStream; Get exists for small, known-bounded reads (icons,
	// manifest files).
	Get(ctx context.Context, key string) ([]byte, error)

	// GetStream returns a stream of the object's bytes and its size, so
	// callers can set Content-Length before the first byte is written
	// (spec §4.6 download path).
	GetStream(ctx context.Context, key string) (io.ReadCloser, uint64, error)

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Rename moves an object in place. Used by the orchestrator's directory
	// rename/move paths when the backend key itself is path-derived; CAS
	// keys are content-derived and never need this, but directory
	// placeholder markers do.
	Rename(ctx context.Context, from, to string) error

	// PresignGet returns a time-limited, directly-fetchable URL for key, or
	// ("", nil) if the backend does not support presigning (spec §4.1,
	// §4.6 "fetch metadata ... if the backend supports presigned URLs").
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// SupportsPresignedURLs lets the orchestrator skip the PresignGet call
	// entirely rather than treating an empty string as "unsupported" (spec
	// §4.1: "returns Option<String>... Ok(None) if not supported").
	SupportsPresignedURLs() bool

	// Healthcheck reports backend connectivity and, on success, latency.
	Healthcheck(ctx context.Context) (time.Duration, error)
}

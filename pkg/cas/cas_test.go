package cas

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/catalog/memory"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
)

type fakeBackend struct {
	objects map[string][]byte
	puts    int
}

func newFakeBackend() *fakeBackend { return &fakeBackend{objects: map[string][]byte{}} }

func (f *fakeBackend) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.puts++
	return nil
}

func (f *fakeBackend) PutFromPath(ctx context.Context, key string, path string) error {
	return nil
}

func (f *fakeBackend) Get(_ context.Context, key string) ([]byte, error) { return f.objects[key], nil }
func (f *fakeBackend) GetStream(_ context.Context, key string) (io.ReadCloser, uint64, error) {
	data := f.objects[key]
	return io.NopCloser(bytes.NewReader(data)), uint64(len(data)), nil
}
func (f *fakeBackend) Delete(_ context.Context, key string) error { delete(f.objects, key); return nil }
func (f *fakeBackend) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}
func (f *fakeBackend) List(_ context.Context, prefix string) ([]backend.ObjectInfo, error) {
	return nil, nil
}
func (f *fakeBackend) Rename(_ context.Context, from, to string) error { return nil }
func (f *fakeBackend) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
}
func (f *fakeBackend) SupportsPresignedURLs() bool { return false }
func (f *fakeBackend) Healthcheck(_ context.Context) (time.Duration, error) { return 0, nil }

var _ backend.Backend = (*fakeBackend)(nil)

// trackingFileBackend records PutFromPath calls, used where the test needs
// Ingest's actual streaming-to-disk path exercised (Ingest always calls
// PutFromPath, never Put).
type trackingFileBackend struct {
	*fakeBackend
	putFromPathCalls int
}

func (f *trackingFileBackend) PutFromPath(ctx context.Context, key string, path string) error {
	f.putFromPathCalls++
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func TestIngestDedupAndCommit(t *testing.T) {
	ctx := context.Background()
	be := &trackingFileBackend{fakeBackend: newFakeBackend()}
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	store := New(be, cat, sched, t.TempDir())

	scope := catalog.Scope{TenantID: "t1", DepartmentID: nil}
	content := []byte("duplicate content bytes")

	res1, err := store.Ingest(ctx, scope, bytes.NewReader(content), Limits{})
	require.NoError(t, err)
	assert.False(t, res1.DedupHit)
	assert.Equal(t, uint64(len(content)), res1.SizeBytes)
	assert.Equal(t, 1, be.putFromPathCalls)

	rec := &catalog.Record{
		ID: "rec1", TenantID: scope.TenantID, Name: "a.txt",
		ContentHash: res1.ContentHash, StorageKey: res1.StorageKey,
		SizeBytes: res1.SizeBytes,
	}
	require.NoError(t, cat.InsertFile(ctx, rec))

	res2, err := store.Ingest(ctx, scope, bytes.NewReader(content), Limits{})
	require.NoError(t, err)
	assert.True(t, res2.DedupHit)
	assert.Equal(t, res1.ContentHash, res2.ContentHash)
	assert.Equal(t, 1, be.putFromPathCalls, "dedup hit must not call the backend again")
}

func TestIngestReusesOrphanedBackendObject(t *testing.T) {
	ctx := context.Background()
	be := &trackingFileBackend{fakeBackend: newFakeBackend()}
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	store := New(be, cat, sched, t.TempDir())

	scope := catalog.Scope{TenantID: "t1", DepartmentID: nil}
	content := []byte("orphaned object bytes")

	res1, err := store.Ingest(ctx, scope, bytes.NewReader(content), Limits{})
	require.NoError(t, err)
	require.Equal(t, 1, be.putFromPathCalls)

	// Simulate a crash between the backend commit and the catalog insert:
	// the object exists at its content key, but no catalog row references
	// it.
	res2, err := store.Ingest(ctx, scope, bytes.NewReader(content), Limits{})
	require.NoError(t, err)
	assert.True(t, res2.DedupHit)
	assert.Equal(t, res1.StorageKey, res2.StorageKey)
	assert.Equal(t, 1, be.putFromPathCalls, "orphan reuse must not call the backend again")
}

func TestIngestEnforcesMaxUploadSize(t *testing.T) {
	ctx := context.Background()
	be := &trackingFileBackend{fakeBackend: newFakeBackend()}
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	store := New(be, cat, sched, t.TempDir())

	content := strings.Repeat("x", 1024)
	_, err := store.Ingest(ctx, catalog.Scope{TenantID: "t1"}, strings.NewReader(content), Limits{MaxUploadSize: 10})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestIngestEnforcesQuota(t *testing.T) {
	ctx := context.Background()
	be := &trackingFileBackend{fakeBackend: newFakeBackend()}
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	store := New(be, cat, sched, t.TempDir())

	content := strings.Repeat("x", 1024)
	_, err := store.Ingest(ctx, catalog.Scope{TenantID: "t1"}, strings.NewReader(content), Limits{RemainingQuota: 10})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestBackendKeyLayout(t *testing.T) {
	scope := catalog.Scope{TenantID: "acme", DepartmentID: nil}
	key := BackendKey(scope, "abcdef1234")
	assert.Equal(t, "acme/private/ab/abcdef1234", key)

	dept := "eng"
	scope.DepartmentID = &dept
	key = BackendKey(scope, "abcdef1234")
	assert.Equal(t, "acme/eng/ab/abcdef1234", key)
}

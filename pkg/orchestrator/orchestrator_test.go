package orchestrator

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/backend/localdir"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/catalog/memory"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	be, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	casStore := cas.New(be, cat, sched, t.TempDir())
	tenants, err := tenantconfig.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { tenants.Close() })

	return New(Config{}, cat, cat, be, casStore, sched, tenants, nil, nil)
}

func uploadActor(id, tenant string) access.Actor {
	return access.Actor{ID: id, TenantID: tenant, Role: access.RoleEmployee}
}

func TestUploadThenDuplicateNameAutoRenames(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	req := UploadRequest{
		Actor: actor, TenantID: "t1", ParentPath: "", Name: "report.txt",
		Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("first"),
	}
	res1, err := o.Upload(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", res1.Name)
	assert.False(t, res1.DedupHit)

	req.Body = strings.NewReader("second, different bytes")
	res2, err := o.Upload(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "report (1).txt", res2.Name)
}

func TestUploadDedupAcrossSameContent(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	content := "identical payload bytes"
	req1 := UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader(content)}
	res1, err := o.Upload(ctx, req1)
	require.NoError(t, err)

	req2 := UploadRequest{Actor: actor, TenantID: "t1", Name: "b.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader(content)}
	res2, err := o.Upload(ctx, req2)
	require.NoError(t, err)

	assert.False(t, res1.DedupHit)
	assert.True(t, res2.DedupHit)
	assert.Equal(t, res1.ContentHash, res2.ContentHash)
}

func TestUploadUnderSOXWritesNewVersionAndFreezesPrior(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")
	require.NoError(t, o.tenants.Put(ctx, tenantconfig.Entry{TenantID: "t1", Compliance: access.ComplianceMode{SOXImmutable: true}}))

	req := UploadRequest{
		Actor: actor, TenantID: "t1", ParentPath: "", Name: "report.txt",
		Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("v1 bytes"),
	}
	res1, err := o.Upload(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", res1.Name)
	assert.Equal(t, 1, res1.NewVersion)

	req.Body = strings.NewReader("v2 bytes, different content")
	res2, err := o.Upload(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "report.txt", res2.Name, "SOX versioning keeps the display name, unlike auto-rename")
	assert.Equal(t, 2, res2.NewVersion)
	assert.NotEqual(t, res1.RecordID, res2.RecordID)

	prior, err := o.catalog.GetByID(ctx, res1.RecordID)
	require.NoError(t, err)
	assert.True(t, prior.IsImmutable, "prior version must be frozen once its successor lands")
	assert.False(t, prior.IsDeleted)

	head, err := o.catalog.GetByID(ctx, res2.RecordID)
	require.NoError(t, err)
	assert.Equal(t, prior.ID, *head.ParentVersion)
	assert.False(t, head.IsImmutable)

	// A third upload under the same name must version off the new head,
	// not the now-immutable first version.
	req.Body = strings.NewReader("v3 bytes, yet more different content")
	res3, err := o.Upload(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, res3.NewVersion)

	head3, err := o.catalog.GetByID(ctx, res3.RecordID)
	require.NoError(t, err)
	assert.Equal(t, res2.RecordID, *head3.ParentVersion)
}

func TestUploadBlockedExtension(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	require.NoError(t, o.tenants.Put(ctx, tenantconfig.Entry{TenantID: "t1", BlockedExtensions: []string{".exe"}}))

	actor := uploadActor("u1", "t1")
	req := UploadRequest{Actor: actor, TenantID: "t1", Name: "virus.exe", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("x")}
	_, err := o.Upload(ctx, req)
	assert.ErrorIs(t, err, ErrBlockedExtension)
}

func TestDownloadForbiddenForWrongTenant(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	owner := uploadActor("owner", "t1")

	res, err := o.Upload(ctx, UploadRequest{Actor: owner, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityPrivate, Body: strings.NewReader("data")})
	require.NoError(t, err)

	stranger := uploadActor("stranger", "t2")
	_, err = o.Download(ctx, stranger, res.RecordID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDownloadStreamsBytes(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	res, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("hello world")})
	require.NoError(t, err)

	dl, err := o.Download(ctx, actor, res.RecordID)
	require.NoError(t, err)
	require.NotNil(t, dl.Stream)
	defer dl.Stream.Close()

	data, err := io.ReadAll(dl.Stream)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLockUnlockRoundTrip(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	res, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("data")})
	require.NoError(t, err)

	require.NoError(t, o.Lock(ctx, actor, LockRequest{RecordID: res.RecordID, Password: "secret", RequiredRole: access.RoleManager}))

	err = o.Lock(ctx, actor, LockRequest{RecordID: res.RecordID})
	assert.ErrorIs(t, err, ErrAlreadyLocked)

	employee := uploadActor("e2", "t1")
	err = o.Unlock(ctx, employee, UnlockRequest{RecordID: res.RecordID, Password: "secret"})
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, o.Unlock(ctx, actor, UnlockRequest{RecordID: res.RecordID, Password: "secret"}))
}

func TestRenameDuplicateRejected(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	_, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("1")})
	require.NoError(t, err)
	res2, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "b.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("2")})
	require.NoError(t, err)

	err = o.Rename(ctx, actor, res2.RecordID, "a.txt")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSoftDeleteThenRestore(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	res, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader("1")})
	require.NoError(t, err)

	require.NoError(t, o.SoftDelete(ctx, actor, res.RecordID))
	_, err = o.Download(ctx, actor, res.RecordID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, o.Restore(ctx, actor, res.RecordID))
	_, err = o.Download(ctx, actor, res.RecordID)
	assert.NoError(t, err)
}

func TestPermanentDeleteKeepsBackendObjectWhileReferenced(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	actor := uploadActor("u1", "t1")

	content := "shared bytes"
	res1, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "a.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader(content)})
	require.NoError(t, err)
	res2, err := o.Upload(ctx, UploadRequest{Actor: actor, TenantID: "t1", Name: "b.txt", Visibility: catalog.VisibilityDepartment, Body: strings.NewReader(content)})
	require.NoError(t, err)

	del1, err := o.PermanentDelete(ctx, actor, res1.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 0, del1.ObjectsDeleted, "object should survive: second record still references it")

	del2, err := o.PermanentDelete(ctx, actor, res2.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 1, del2.ObjectsDeleted, "object should be gone after last reference removed")
}

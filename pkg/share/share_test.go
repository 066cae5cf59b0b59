package share

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/backend/localdir"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/catalog/memory"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

func newTestGateway(t *testing.T) (*Gateway, access.Actor) {
	t.Helper()
	be, err := localdir.New(t.TempDir())
	require.NoError(t, err)
	cat := memory.New()
	sched := scheduler.New(scheduler.Config{})
	casStore := cas.New(be, cat, sched, t.TempDir())
	tenants, err := tenantconfig.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { tenants.Close() })

	orch := orchestrator.New(orchestrator.Config{}, cat, cat, be, casStore, sched, tenants, nil, nil)

	owner := access.Actor{ID: "owner", TenantID: "t1", Role: access.RoleEmployee}
	_, err = orch.Upload(context.Background(), orchestrator.UploadRequest{
		Actor: owner, TenantID: "t1", Name: "secret.txt",
		Visibility: catalog.VisibilityPrivate, Body: strings.NewReader("top secret payload"),
	})
	require.NoError(t, err)

	gw := New(cat, cat, orch)
	return gw, owner
}

func TestCreateAndRedeemPublicShare(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, IsPublic: true})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)

	result, err := gw.Redeem(ctx, RedeemRequest{Token: tok.Token})
	require.NoError(t, err)
	require.NotNil(t, result.Stream)
	defer result.Stream.Close()

	data, err := io.ReadAll(result.Stream)
	require.NoError(t, err)
	assert.Equal(t, "top secret payload", string(data))
}

func TestRedeemPermissionedRequiresReadAccess(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, Policy: catalog.SharePolicyPermissioned})
	require.NoError(t, err)

	stranger := access.Actor{ID: "stranger", TenantID: "t1", Role: access.RoleEmployee}
	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token, RedeemerActor: &stranger})
	assert.ErrorIs(t, err, ErrForbidden, "private file, stranger has no department/ownership overlap")

	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token, RedeemerActor: &owner})
	assert.NoError(t, err)
}

func TestRedeemTenantWideSkipsPerFileCheck(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, Policy: catalog.SharePolicyTenantWide})
	require.NoError(t, err)

	sameTenant := access.Actor{ID: "colleague", TenantID: "t1", Role: access.RoleEmployee}
	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token, RedeemerActor: &sameTenant})
	assert.NoError(t, err, "tenant_wide grants any same-tenant credential, no per-file decide")

	otherTenant := access.Actor{ID: "outsider", TenantID: "t2", Role: access.RoleEmployee}
	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token, RedeemerActor: &otherTenant})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRedeemExpiredToken(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, IsPublic: true, TTL: time.Nanosecond})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token})
	assert.ErrorIs(t, err, ErrExpired)
}

func TestRedeemIncrementsDownloadCounter(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, IsPublic: true})
	require.NoError(t, err)

	result, err := gw.Redeem(ctx, RedeemRequest{Token: tok.Token})
	require.NoError(t, err)
	result.Stream.Close()

	got, err := gw.shares.GetShareByToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Downloads)
}

func TestRedeemWrongPasswordRejected(t *testing.T) {
	gw, owner := newTestGateway(t)
	ctx := context.Background()

	recs, err := gw.cat.ListChildren(ctx, "t1", nil, "", nil)
	require.NoError(t, err)
	rec := recs[0]

	tok, err := gw.Create(ctx, CreateRequest{Actor: owner, RecordID: rec.ID, IsPublic: true, Password: "hunter2"})
	require.NoError(t, err)

	_, err = gw.Redeem(ctx, RedeemRequest{Token: tok.Token, Password: "wrong"})
	assert.ErrorIs(t, err, ErrForbidden)

	result, err := gw.Redeem(ctx, RedeemRequest{Token: tok.Token, Password: "hunter2"})
	require.NoError(t, err)
	result.Stream.Close()
}

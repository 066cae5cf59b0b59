package tenantconfig

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	entry := Entry{
		TenantID:           "t1",
		BlockedExtensions:  []string{".exe", ".bat"},
		MaxUploadSizeBytes: 1 << 30,
		QuotaBytes:         1 << 40,
		QuotaUsedBytes:     1 << 30,
	}
	require.NoError(t, s.Put(ctx, entry))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, entry, got)
	assert.True(t, got.BlocksExtension(".exe"))
	assert.False(t, got.BlocksExtension(".pdf"))
}

func TestGetUnknownTenantReturnsZeroValue(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, "unknown", got.TenantID)
	assert.Equal(t, uint64(0), got.RemainingQuota())
}

func TestRemainingQuota(t *testing.T) {
	e := Entry{QuotaBytes: 100, QuotaUsedBytes: 40}
	assert.Equal(t, uint64(60), e.RemainingQuota())

	e.QuotaUsedBytes = 150
	assert.Equal(t, uint64(0), e.RemainingQuota())

	unlimited := Entry{}
	assert.Equal(t, uint64(0), unlimited.RemainingQuota())
}

func TestDelete(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Entry{TenantID: "t1", QuotaBytes: 10}))
	require.NoError(t, s.Delete(ctx, "t1"))

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.QuotaBytes)
}

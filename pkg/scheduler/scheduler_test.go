package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cfg := Config{SmallThreshold: 100, MediumThreshold: 1000}
	cfg.applyDefaults()

	assert.Equal(t, SizeSmall, cfg.classify(50))
	assert.Equal(t, SizeSmall, cfg.classify(100))
	assert.Equal(t, SizeMedium, cfg.classify(101))
	assert.Equal(t, SizeMedium, cfg.classify(1000))
	assert.Equal(t, SizeLarge, cfg.classify(1001))
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	s := New(Config{LargeCapacity: 1})
	ctx := context.Background()

	p, err := s.AcquireUploadPermit(ctx, 1<<30) // large
	require.NoError(t, err)
	assert.Equal(t, SizeLarge, p.Class())
	p.Release()

	p2, err := s.AcquireDownloadPermit(ctx, 1<<30)
	require.NoError(t, err)
	p2.Release()
}

func TestSmallClassNeverBlockedByLarge(t *testing.T) {
	s := New(Config{LargeCapacity: 1, SmallCapacity: 4})
	ctx := context.Background()

	large, err := s.AcquireUploadPermit(ctx, 1<<30)
	require.NoError(t, err)
	defer large.Release()

	done := make(chan struct{})
	go func() {
		p, err := s.AcquireUploadPermit(ctx, 10)
		require.NoError(t, err)
		p.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("small-class acquire blocked by saturated large class")
	}
}

func TestAcquireRespectsCancellation(t *testing.T) {
	s := New(Config{LargeCapacity: 1})
	ctx := context.Background()

	held, err := s.AcquireUploadPermit(ctx, 1<<30)
	require.NoError(t, err)
	defer held.Release()

	cancelCtx, cancel := context.WithCancel(ctx)
	var acquired int32
	errCh := make(chan error, 1)
	go func() {
		p, err := s.AcquireUploadPermit(cancelCtx, 1<<30)
		if err == nil {
			atomic.StoreInt32(&acquired, 1)
			p.Release()
		}
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.Error(t, err)
		assert.Equal(t, int32(0), atomic.LoadInt32(&acquired))
	case <-time.After(time.Second):
		t.Fatal("cancellation did not unblock waiter")
	}
}

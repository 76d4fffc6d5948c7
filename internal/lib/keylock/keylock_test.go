package keylock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	kl := New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		counter int
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, kl.Lock(ctx, "acct:1"))
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			kl.Unlock("acct:1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Zero(t, kl.Len())
}

func TestKeyLock_DifferentKeysDoNotBlock(t *testing.T) {
	kl := New()
	ctx := context.Background()

	require.NoError(t, kl.Lock(ctx, "a"))
	defer kl.Unlock("a")

	done := make(chan struct{})
	go func() {
		assert.NoError(t, kl.Lock(ctx, "b"))
		kl.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestKeyLock_LockHonorsContext(t *testing.T) {
	kl := New()

	require.NoError(t, kl.Lock(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := kl.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	kl.Unlock("a")
	assert.Zero(t, kl.Len())
}

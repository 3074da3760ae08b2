package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeField struct {
	expired     bool
	refreshErr  error
	refreshFixes bool
	destroyed   bool
	updatedAt   time.Time
}

func (f *fakeField) IsExpired() bool { return f.expired }
func (f *fakeField) Refresh(ctx context.Context) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	if f.refreshFixes {
		f.expired = false
	}
	return nil
}
func (f *fakeField) Destroy()            { f.destroyed = true }
func (f *fakeField) UpdatedAt() time.Time { return f.updatedAt }

func TestUpsertCreatesAndReturnsOnHit(t *testing.T) {
	pool, err := NewPool(PoolConfig{Max: 10, RemoveBatchSize: 2})
	require.NoError(t, err)

	calls := 0
	getter := func(ctx context.Context) (map[string]Field, error) {
		calls++
		return map[string]Field{"auth": &fakeField{}}, nil
	}

	s1, err := pool.Upsert(context.Background(), "user-1", getter)
	require.NoError(t, err)
	s2, err := pool.Upsert(context.Background(), "user-1", getter)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, calls, "getter should only run once for a cache hit")
}

func TestPoolSizeNeverExceedsMax(t *testing.T) {
	pool, err := NewPool(PoolConfig{Max: 5, RemoveBatchSize: 2})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		_, err := pool.Upsert(context.Background(), id, func(ctx context.Context) (map[string]Field, error) {
			return map[string]Field{"auth": &fakeField{}}, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, pool.Size(), 5)
	}
}

func TestUpsertDiscardsExpiredSession(t *testing.T) {
	pool, err := NewPool(PoolConfig{Max: 10, RemoveBatchSize: 2})
	require.NoError(t, err)

	stale := &fakeField{expired: true}
	first, err := pool.Upsert(context.Background(), "s1", func(ctx context.Context) (map[string]Field, error) {
		return map[string]Field{"auth": stale}, nil
	})
	require.NoError(t, err)

	fresh := &fakeField{}
	second, err := pool.Upsert(context.Background(), "s1", func(ctx context.Context) (map[string]Field, error) {
		return map[string]Field{"auth": fresh}, nil
	})
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, stale.destroyed)
}

func TestSweepRemovesInactive(t *testing.T) {
	pool, err := NewPool(PoolConfig{Max: 10, RemoveBatchSize: 2, InactiveThreshold: time.Millisecond})
	require.NoError(t, err)

	_, err = pool.Upsert(context.Background(), "s1", func(ctx context.Context) (map[string]Field, error) {
		return map[string]Field{"auth": &fakeField{}}, nil
	})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	pool.Sweep(context.Background())

	assert.Equal(t, 0, pool.Size())
}

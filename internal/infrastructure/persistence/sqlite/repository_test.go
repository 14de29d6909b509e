package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qj0r9j0vc2/modmail/internal/domain/repository"
)

func setupRepositoryTest(t *testing.T) (*DB, *Repositories) {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "modmail.db"))
	require.NoError(t, err)

	err = db.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db, NewRepositories(db.DB)
}

func TestThreadCounterRepository_Next(t *testing.T) {
	_, repos := setupRepositoryTest(t)
	ctx := context.Background()

	t.Run("first value is one and increments", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := repos.ThreadCounter.Next(ctx, "C1")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("scopes are independent", func(t *testing.T) {
		got, err := repos.ThreadCounter.Next(ctx, "C2")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("empty scope rejected", func(t *testing.T) {
		_, err := repos.ThreadCounter.Next(ctx, "")
		assert.ErrorIs(t, err, repository.ErrEmptyKey)
	})

	t.Run("concurrent callers get unique values", func(t *testing.T) {
		const workers = 20
		values := make(chan int64, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := repos.ThreadCounter.Next(ctx, "C3")
				assert.NoError(t, err)
				values <- v
			}()
		}
		wg.Wait()
		close(values)

		seen := make(map[int64]bool)
		for v := range values {
			assert.False(t, seen[v], "duplicate counter value %d", v)
			seen[v] = true
		}
		assert.Len(t, seen, workers)
	})
}

func TestThreadCounterRepository_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "modmail.db")
	ctx := context.Background()

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	first, err := NewThreadCounterRepository(db.DB).Next(ctx, "C1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	second, err := NewThreadCounterRepository(db.DB).Next(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

func TestInteractionLedger_Claim(t *testing.T) {
	_, repos := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()

	claimed, err := repos.Ledger.Claim(ctx, "I1", now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repos.Ledger.Claim(ctx, "I1", now)
	require.NoError(t, err)
	assert.False(t, claimed)

	_, err = repos.Ledger.Claim(ctx, "", now)
	assert.ErrorIs(t, err, repository.ErrEmptyKey)
}

func TestInteractionLedger_DeleteBefore(t *testing.T) {
	_, repos := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repos.Ledger.Claim(ctx, "old", now.Add(-48*time.Hour))
	require.NoError(t, err)
	_, err = repos.Ledger.Claim(ctx, "fresh", now)
	require.NoError(t, err)

	deleted, err := repos.Ledger.DeleteBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// The purged ID can be claimed again; the fresh one cannot.
	claimed, err := repos.Ledger.Claim(ctx, "old", now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repos.Ledger.Claim(ctx, "fresh", now)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestInteractionLedger_Release(t *testing.T) {
	_, repos := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()

	_, err := repos.Ledger.Claim(ctx, "I1", now)
	require.NoError(t, err)
	require.NoError(t, repos.Ledger.Release(ctx, "I1"))
	require.NoError(t, repos.Ledger.Release(ctx, "unknown"))

	claimed, err := repos.Ledger.Claim(ctx, "I1", now)
	require.NoError(t, err)
	assert.True(t, claimed)
}

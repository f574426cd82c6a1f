package repository

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/shortify/internal/models"
	"go.uber.org/zap"
)

// newTestRedisRepository подключается к Redis из REDIS_ADDR, а без него поднимает miniredis
func newTestRedisRepository(t *testing.T) *RedisRepository {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	prefix := "shortify-test-" + strconv.FormatInt(time.Now().UnixNano(), 36) + ":"
	repo, err := NewRedisRepository(ctx, client, prefix, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Clear(context.Background()) })
	return repo
}

func TestNewRedisRepository_NilClient(t *testing.T) {
	_, err := NewRedisRepository(context.Background(), nil, "", zap.NewNop())
	assert.Error(t, err)
}

func TestLinkFromHash(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expiration := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	link, err := linkFromHash(map[string]string{
		"id":         "7",
		"original":   "https://go.dev",
		"short":      "go",
		"created_at": strconv.FormatInt(created.UnixMilli(), 10),
		"hit_count":  "12",
		"expiration": strconv.FormatInt(expiration.UnixMilli(), 10),
		"suspended":  "1",
		"owner_id":   "user1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Link{
		ID:             7,
		Original:       "https://go.dev",
		Short:          "go",
		CreatedAt:      created,
		HitCount:       12,
		ExpirationDate: &expiration,
		Suspended:      true,
		OwnerID:        "user1",
	}, link)

	link, err = linkFromHash(map[string]string{"id": "1", "created_at": "0", "hit_count": "0", "expiration": "", "suspended": "0"})
	require.NoError(t, err)
	assert.Nil(t, link.ExpirationDate)
	assert.False(t, link.Suspended)

	_, err = linkFromHash(map[string]string{"id": "x"})
	assert.Error(t, err)
}

func TestRedisRepository(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()
	var _ Repository = repo

	link, err := repo.Insert(ctx, "https://www.python.org", "py", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.ID)

	_, err = repo.Insert(ctx, "https://go.dev", "py", "user2")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	found, err := repo.FindByShort(ctx, "py")
	require.NoError(t, err)
	assert.Equal(t, link.ID, found.ID)
	assert.Equal(t, "https://www.python.org", found.Original)
	assert.True(t, link.CreatedAt.Equal(found.CreatedAt))
	byID, err := repo.FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "py", byID.Short)

	_, err = repo.FindByShort(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.NoError(t, err)
	links, err := repo.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "go", links[0].Short)

	count, owners, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, owners)

	// Счётчик и приостановка
	updated, err := repo.IncrementHits(ctx, "py", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.HitCount)

	past := time.Now().Add(-time.Hour)
	link.ExpirationDate = &past
	require.NoError(t, repo.Update(ctx, link))
	_, err = repo.IncrementHits(ctx, "py", time.Now())
	assert.ErrorIs(t, err, ErrInactive)
	require.NoError(t, repo.SuspendExpired(ctx, "py", time.Now()))
	require.NoError(t, repo.SuspendExpired(ctx, "py", time.Now()))
	found, err = repo.FindByShort(ctx, "py")
	require.NoError(t, err)
	assert.True(t, found.Suspended)
	assert.Equal(t, int64(1), found.HitCount)

	_, err = repo.IncrementHits(ctx, "nope", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, models.Link{ID: 99}), ErrNotFound)

	// Удаление освобождает short и индексы
	require.NoError(t, repo.Delete(ctx, link.ID))
	assert.ErrorIs(t, repo.Delete(ctx, link.ID), ErrNotFound)
	exists, err := repo.Exists(ctx, "py")
	require.NoError(t, err)
	assert.False(t, exists)
	count, _, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisRepository_ConcurrentIncrement(t *testing.T) {
	repo := newTestRedisRepository(t)
	ctx := context.Background()
	_, err := repo.Insert(ctx, "https://example.com", "hot", "user1")
	require.NoError(t, err)

	const hits = 100
	var wg sync.WaitGroup
	for i := 0; i < hits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementHits(ctx, "hot", time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	link, err := repo.FindByShort(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, int64(hits), link.HitCount)
}

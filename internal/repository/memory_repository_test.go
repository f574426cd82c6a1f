package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/shortify/internal/models"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	// Проверяем, что MemoryRepository реализует интерфейс Repository
	var _ Repository = (*MemoryRepository)(nil)

	// Тест 1: Сохранение и получение ссылки
	link, err := repo.Insert(ctx, "https://www.python.org", "py", "user1")
	require.NoError(t, err, "Insert should not return error")
	assert.Equal(t, int64(1), link.ID)
	assert.Equal(t, "py", link.Short)
	assert.Zero(t, link.HitCount)
	assert.False(t, link.Suspended)
	assert.Nil(t, link.ExpirationDate)
	assert.False(t, link.CreatedAt.IsZero())

	found, err := repo.FindByShort(ctx, "py")
	require.NoError(t, err)
	assert.Equal(t, link, found)

	byID, err := repo.FindByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, link, byID)

	exists, err := repo.Exists(ctx, "py")
	require.NoError(t, err)
	assert.True(t, exists)

	// Тест 2: Повторный short отклоняется
	_, err = repo.Insert(ctx, "https://go.dev", "py", "user2")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Тест 3: Несуществующие записи
	_, err = repo.FindByShort(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	exists, err = repo.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, exists)

	// Тест 4: Обновление настроек
	expiration := time.Now().Add(time.Hour).UTC()
	link.Suspended = true
	link.ExpirationDate = &expiration
	link.HitCount = 100 // не должен сохраниться
	require.NoError(t, repo.Update(ctx, link))
	found, err = repo.FindByShort(ctx, "py")
	require.NoError(t, err)
	assert.True(t, found.Suspended)
	assert.Equal(t, expiration, *found.ExpirationDate)
	assert.Zero(t, found.HitCount, "Update must not touch hit_count")
	assert.ErrorIs(t, repo.Update(ctx, models.Link{ID: 99}), ErrNotFound)

	// Тест 5: Удаление
	require.NoError(t, repo.Delete(ctx, link.ID))
	_, err = repo.FindByShort(ctx, "py")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, link.ID), ErrNotFound)

	// Тест 6: После удаления short снова свободен
	again, err := repo.Insert(ctx, "https://www.python.org", "py", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), again.ID, "Identifiers are never reused")

	// Тест 7: Очистка хранилища
	require.NoError(t, repo.Clear(ctx))
	_, err = repo.FindByShort(ctx, "py")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_ListByOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Insert(ctx, "https://a.example", "a", "user1")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "https://b.example", "b", "user2")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "https://c.example", "c", "user1")
	require.NoError(t, err)

	links, err := repo.ListByOwner(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "c", links[0].Short, "Newest link first")
	assert.Equal(t, "a", links[1].Short)

	links, err = repo.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestMemoryRepository_IncrementHits(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewMemoryRepository()

	link, err := repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.NoError(t, err)

	// Тест 1: Активная ссылка
	updated, err := repo.IncrementHits(ctx, "go", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.HitCount)
	assert.Equal(t, "https://go.dev", updated.Original)

	// Тест 2: Неизвестная ссылка
	_, err = repo.IncrementHits(ctx, "nope", now)
	assert.ErrorIs(t, err, ErrNotFound)

	// Тест 3: Приостановленная ссылка не считается
	link.Suspended = true
	require.NoError(t, repo.Update(ctx, link))
	_, err = repo.IncrementHits(ctx, "go", now)
	assert.ErrorIs(t, err, ErrInactive)

	// Тест 4: Истёкшая ссылка не считается
	past := now.Add(-time.Minute)
	link.Suspended = false
	link.ExpirationDate = &past
	require.NoError(t, repo.Update(ctx, link))
	_, err = repo.IncrementHits(ctx, "go", now)
	assert.ErrorIs(t, err, ErrInactive)

	found, err := repo.FindByShort(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.HitCount)
}

func TestMemoryRepository_SuspendExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	repo := NewMemoryRepository()

	link, err := repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.NoError(t, err)

	// Без срока действия ничего не меняется
	require.NoError(t, repo.SuspendExpired(ctx, "go", now))
	found, _ := repo.FindByShort(ctx, "go")
	assert.False(t, found.Suspended)

	// Будущий срок не приводит к приостановке
	future := now.Add(time.Hour)
	link.ExpirationDate = &future
	require.NoError(t, repo.Update(ctx, link))
	require.NoError(t, repo.SuspendExpired(ctx, "go", now))
	found, _ = repo.FindByShort(ctx, "go")
	assert.False(t, found.Suspended)

	// Истёкший срок приостанавливает, повторный вызов идемпотентен
	past := now.Add(-time.Hour)
	link.ExpirationDate = &past
	require.NoError(t, repo.Update(ctx, link))
	require.NoError(t, repo.SuspendExpired(ctx, "go", now))
	require.NoError(t, repo.SuspendExpired(ctx, "go", now))
	found, _ = repo.FindByShort(ctx, "go")
	assert.True(t, found.Suspended)

	assert.ErrorIs(t, repo.SuspendExpired(ctx, "nope", now), ErrNotFound)
}

func TestMemoryRepository_Stats(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	links, owners, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, links)
	assert.Equal(t, 0, owners)

	for i, owner := range []string{"user1", "user1", "user2"} {
		_, err := repo.Insert(ctx, "https://example.com", fmt.Sprintf("id%d", i), owner)
		require.NoError(t, err)
	}

	links, owners, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, links)
	assert.Equal(t, 2, owners)
}

func TestMemoryRepository_ConcurrentInsertSameShort(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	const workers = 32
	var wg sync.WaitGroup
	var succeeded, duplicates atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Insert(ctx, "https://example.com", "race", fmt.Sprintf("user%d", i))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, ErrDuplicateKey):
				duplicates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load(), "Exactly one insert must win")
	assert.Equal(t, int32(workers-1), duplicates.Load())
}

func TestMemoryRepository_ConcurrentIncrement(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, err := repo.Insert(ctx, "https://example.com", "hot", "user1")
	require.NoError(t, err)

	const hits = 500
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
	assert.Equal(t, int64(hits), link.HitCount, "No increments may be lost")
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, err := repo.Insert(ctx, "https://example.com", "copy", "user1")
	require.NoError(t, err)

	link, err := repo.FindByShort(ctx, "copy")
	require.NoError(t, err)
	link.Suspended = true
	link.Original = "https://evil.example"

	stored, err := repo.FindByShort(ctx, "copy")
	require.NoError(t, err)
	assert.False(t, stored.Suspended)
	assert.Equal(t, "https://example.com", stored.Original)
}

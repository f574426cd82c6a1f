package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileRepository(t *testing.T) {
	ctx := context.Background()
	tempFile := filepath.Join(t.TempDir(), "links.json")

	// Создаём репозиторий
	repo, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err, "Failed to create file repository")

	var _ Repository = (*FileRepository)(nil)

	// Тест 1: Сохранение и получение ссылки
	link, err := repo.Insert(ctx, "https://www.python.org", "py", "user1")
	require.NoError(t, err, "Failed to save link")
	_, err = repo.Insert(ctx, "https://go.dev", "go", "user2")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, "https://other.example", "py", "user2")
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Тест 2: Изменения счётчика и настроек попадают в файл
	_, err = repo.IncrementHits(ctx, "py", time.Now())
	require.NoError(t, err)
	expiration := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	link.ExpirationDate = &expiration
	require.NoError(t, repo.Update(ctx, link))

	// Тест 3: Восстановление данных
	repo2, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err, "Failed to create second file repository")
	restored, err := repo2.FindByShort(ctx, "py")
	require.NoError(t, err, "Link should be restored")
	assert.Equal(t, link.ID, restored.ID)
	assert.Equal(t, "https://www.python.org", restored.Original)
	assert.Equal(t, int64(1), restored.HitCount)
	require.NotNil(t, restored.ExpirationDate)
	assert.True(t, expiration.Equal(*restored.ExpirationDate))

	// Тест 4: Счётчик идентификаторов продолжается после загрузки
	next, err := repo2.Insert(ctx, "https://rust-lang.org", "rs", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.ID)

	// Тест 5: Удаление сохраняется
	require.NoError(t, repo2.Delete(ctx, link.ID))
	repo3, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err)
	_, err = repo3.FindByShort(ctx, "py")
	assert.ErrorIs(t, err, ErrNotFound)
	links, owners, err := repo3.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, links)
	assert.Equal(t, 2, owners)

	// Тест 6: Очистка хранилища
	require.NoError(t, repo3.Clear(ctx))
	data, err := os.ReadFile(tempFile)
	require.NoError(t, err, "File should exist after clear")
	assert.Empty(t, strings.TrimSpace(string(data)))
}

func TestFileRepository_SuspendExpiredPersists(t *testing.T) {
	ctx := context.Background()
	tempFile := filepath.Join(t.TempDir(), "links.json")

	repo, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err)
	link, err := repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	link.ExpirationDate = &past
	require.NoError(t, repo.Update(ctx, link))
	require.NoError(t, repo.SuspendExpired(ctx, "go", time.Now()))

	reloaded, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err)
	found, err := reloaded.FindByShort(ctx, "go")
	require.NoError(t, err)
	assert.True(t, found.Suspended)
}

func TestFileRepository_InvalidLines(t *testing.T) {
	ctx := context.Background()
	tempFile := filepath.Join(t.TempDir(), "links.json")

	content := "invalid json\n" +
		`{"id":0,"short":"zero"}` + "\n" +
		`{"id":7,"original":"https://go.dev","short":"go","owner_id":"user1"}` + "\n"
	require.NoError(t, os.WriteFile(tempFile, []byte(content), 0644))

	repo, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err, "Should handle invalid JSON lines")

	_, err = repo.FindByShort(ctx, "zero")
	assert.ErrorIs(t, err, ErrNotFound)
	link, err := repo.FindByShort(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int64(7), link.ID)
}

func TestFileRepository_NonExistentDir(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "subdir", "links.json")

	repo, err := NewFileRepository(tempFile, zap.NewNop())
	require.NoError(t, err, "Failed to create repository in non-existent dir")

	_, err = repo.Insert(context.Background(), "https://example.com", "ex", "user1")
	assert.NoError(t, err, "Failed to save link in new dir")
	_, err = os.Stat(tempFile)
	assert.NoError(t, err)
}

func TestFileRepository_PersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	repo, err := NewFileRepository(filepath.Join(dir, "links.json"), zap.NewNop())
	require.NoError(t, err)

	link, err := repo.Insert(ctx, "https://www.python.org", "py", "user1")
	require.NoError(t, err)

	// Без каталога временный файл снимка не создаётся
	require.NoError(t, os.RemoveAll(dir))

	// Вставка откатывается, имя остаётся свободным
	_, err = repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.Error(t, err)
	exists, err := repo.Exists(ctx, "go")
	require.NoError(t, err)
	assert.False(t, exists)

	// Настройки и удаление откатываются
	expiration := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	changed := link
	changed.Suspended = true
	changed.ExpirationDate = &expiration
	require.Error(t, repo.Update(ctx, changed))
	require.Error(t, repo.Delete(ctx, link.ID))
	found, err := repo.FindByShort(ctx, "py")
	require.NoError(t, err)
	assert.False(t, found.Suspended)
	assert.Nil(t, found.ExpirationDate)

	// Счётчик переходов не зависит от записи на диск
	found, err = repo.IncrementHits(ctx, "py", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.HitCount)

	require.Error(t, repo.Clear(ctx))
	count, _, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// После восстановления каталога повтор той же вставки проходит
	require.NoError(t, os.MkdirAll(dir, 0755))
	retried, err := repo.Insert(ctx, "https://go.dev", "go", "user1")
	require.NoError(t, err)
	assert.Equal(t, "go", retried.Short)
}

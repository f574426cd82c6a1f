package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tempizhere/shortify/internal/config"
	"github.com/tempizhere/shortify/internal/repository"
	"go.uber.org/zap"
)

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, err := NewStorage(ctx, &config.Config{}, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, "memory", s.Kind)
		assert.IsType(t, &repository.MemoryRepository{}, s.Links)
		assert.Nil(t, s.Pinger)
	})

	t.Run("file when path is set", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "links.json")
		s, err := NewStorage(ctx, &config.Config{FileStoragePath: path}, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, "file", s.Kind)
		assert.IsType(t, &repository.FileRepository{}, s.Links)
		assert.IsType(t, &repository.MemoryUserRepository{}, s.Users)
	})

	t.Run("redis when address is set", func(t *testing.T) {
		srv := miniredis.RunT(t)
		s, err := NewStorage(ctx, &config.Config{RedisAddr: srv.Addr()}, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		assert.Equal(t, "redis", s.Kind)
		assert.IsType(t, &repository.RedisRepository{}, s.Links)
		require.NotNil(t, s.Pinger)
		assert.NoError(t, s.Pinger.PingContext(ctx))
	})

	t.Run("unreachable redis fails", func(t *testing.T) {
		// Порт 1 закрыт, подключение отклоняется сразу
		_, err := NewStorage(ctx, &config.Config{RedisAddr: "127.0.0.1:1"}, zap.NewNop())
		assert.Error(t, err)
	})
}

package app

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/tempizhere/shortify/internal/config"
	"github.com/tempizhere/shortify/internal/repository"
	"go.uber.org/zap"
)

// Storage хранилища ссылок и учётных записей, выбранные по конфигурации
type Storage struct {
	Links repository.Repository
	Users repository.UserRepository
	// Pinger nil, если хранилище живёт в памяти процесса
	Pinger  Pinger
	Kind    string
	closers []func() error
}

// NewStorage выбирает хранилище: PostgreSQL по DSN, иначе Redis, иначе файл, иначе память.
// Учётные записи хранятся в PostgreSQL только вместе со ссылками.
func NewStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	switch {
	case cfg.DatabaseDSN != "":
		db, err := NewDB(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		links, err := repository.NewPostgresRepository(db, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Storage{
			Links:   links,
			Users:   repository.NewPostgresUserRepository(db, logger),
			Pinger:  db,
			Kind:    "postgres",
			closers: []func() error{db.Close},
		}, nil

	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		links, err := repository.NewRedisRepository(ctx, client, repository.DefaultRedisPrefix, logger)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Storage{
			Links:   links,
			Users:   repository.NewMemoryUserRepository(),
			Pinger:  links,
			Kind:    "redis",
			closers: []func() error{client.Close},
		}, nil

	case cfg.FileStoragePath != "":
		links, err := repository.NewFileRepository(cfg.FileStoragePath, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Links: links,
			Users: repository.NewMemoryUserRepository(),
			Kind:  "file",
		}, nil

	default:
		return &Storage{
			Links: repository.NewMemoryRepository(),
			Users: repository.NewMemoryUserRepository(),
			Kind:  "memory",
		}, nil
	}
}

// Close освобождает соединения хранилища
func (s *Storage) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

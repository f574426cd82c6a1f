package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tempizhere/shortify/internal/models"
)

var (
	// ErrDuplicateKey возвращается хранилищем при нарушении уникальности короткого идентификатора или email
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")
	// ErrInactive ссылка приостановлена или истекла и не может быть разрешена
	ErrInactive = errors.New("link is inactive")
)

// Repository определяет интерфейс хранилища ссылок.
// Уникальность short и атомарность счётчика обеспечиваются самим хранилищем.
type Repository interface {
	// Exists сообщает, занят ли короткий идентификатор
	Exists(ctx context.Context, short string) (bool, error)
	// Insert сохраняет новую ссылку или возвращает ErrDuplicateKey
	Insert(ctx context.Context, original, short, ownerID string) (models.Link, error)
	// FindByShort возвращает ссылку по короткому идентификатору
	FindByShort(ctx context.Context, short string) (models.Link, error)
	// FindByID возвращает ссылку по первичному ключу
	FindByID(ctx context.Context, id int64) (models.Link, error)
	// ListByOwner возвращает ссылки пользователя, новые первыми
	ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error)
	// Update сохраняет изменённые suspended и expiration_date
	Update(ctx context.Context, link models.Link) error
	// Delete удаляет ссылку без возможности восстановления
	Delete(ctx context.Context, id int64) error
	// IncrementHits атомарно увеличивает счётчик активной ссылки и возвращает её
	IncrementHits(ctx context.Context, short string, now time.Time) (models.Link, error)
	// SuspendExpired идемпотентно приостанавливает истёкшую ссылку
	SuspendExpired(ctx context.Context, short string, now time.Time) error
	// Stats возвращает количество ссылок и уникальных владельцев
	Stats(ctx context.Context) (links int, owners int, err error)
	// Clear очищает все данные в хранилище
	Clear(ctx context.Context) error
}

// UserRepository определяет интерфейс хранилища учётных записей
type UserRepository interface {
	// Create сохраняет пользователя или возвращает ErrDuplicateKey для занятого email
	Create(ctx context.Context, user models.User) error
	// FindByID возвращает пользователя по идентификатору
	FindByID(ctx context.Context, id string) (models.User, error)
	// FindByEmail возвращает пользователя по email
	FindByEmail(ctx context.Context, email string) (models.User, error)
	// Update сохраняет изменённые поля пользователя
	Update(ctx context.Context, user models.User) error
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// PingContext проверяет соединение с базой данных
	PingContext(ctx context.Context) error
	// Close закрывает соединение с базой данных
	Close() error
	// ExecContext выполняет SQL-команду без возврата результатов
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	// QueryContext выполняет SQL-запрос и возвращает результаты
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	// QueryRowContext выполняет SQL-запрос и возвращает одну строку результата
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

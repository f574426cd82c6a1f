package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempizhere/shortify/internal/models"
	"go.uber.org/zap"
)

// uniqueViolation код SQLSTATE нарушения уникального ограничения
const uniqueViolation = "23505"

const linkColumns = "id, original, short, created_at, hit_count, expiration_date, suspended, owner_id"

const (
	queryExists         = "SELECT EXISTS(SELECT 1 FROM links WHERE short = $1)"
	queryInsertLink     = "INSERT INTO links (original, short, owner_id) VALUES ($1, $2, $3) RETURNING " + linkColumns
	queryFindByShort    = "SELECT " + linkColumns + " FROM links WHERE short = $1"
	queryFindByID       = "SELECT " + linkColumns + " FROM links WHERE id = $1"
	queryListByOwner    = "SELECT " + linkColumns + " FROM links WHERE owner_id = $1 ORDER BY id DESC"
	queryUpdateSettings = "UPDATE links SET suspended = $1, expiration_date = $2 WHERE id = $3"
	queryDeleteLink     = "DELETE FROM links WHERE id = $1"
	queryIncrementHits  = "UPDATE links SET hit_count = hit_count + 1 WHERE short = $1 AND NOT suspended AND (expiration_date IS NULL OR expiration_date >= $2) RETURNING " + linkColumns
	querySuspendExpired = "UPDATE links SET suspended = TRUE WHERE short = $1 AND expiration_date IS NOT NULL AND expiration_date < $2"
	queryStats          = "SELECT COUNT(*), COUNT(DISTINCT owner_id) FROM links"
	queryClear          = "TRUNCATE TABLE links RESTART IDENTITY"
)

// PostgresRepository реализует интерфейс Repository с использованием PostgreSQL
type PostgresRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database is not configured")
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (models.Link, error) {
	var link models.Link
	var expiration sql.NullTime
	err := row.Scan(&link.ID, &link.Original, &link.Short, &link.CreatedAt, &link.HitCount, &expiration, &link.Suspended, &link.OwnerID)
	if err != nil {
		return models.Link{}, err
	}
	if expiration.Valid {
		t := expiration.Time
		link.ExpirationDate = &t
	}
	return link, nil
}

// isUniqueViolation проверяет, что ошибка вызвана уникальным ограничением
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Exists проверяет наличие короткого идентификатора
func (r *PostgresRepository) Exists(ctx context.Context, short string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, queryExists, short).Scan(&exists); err != nil {
		r.logger.Error("Failed to check short id", zap.String("short", short), zap.Error(err))
		return false, err
	}
	return exists, nil
}

// Insert сохраняет ссылку; уникальность short обеспечивает ограничение UNIQUE
func (r *PostgresRepository) Insert(ctx context.Context, original, short, ownerID string) (models.Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, queryInsertLink, original, short, ownerID))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Link{}, ErrDuplicateKey
		}
		r.logger.Error("Failed to save link to database", zap.String("short", short), zap.Error(err))
		return models.Link{}, err
	}
	return link, nil
}

// FindByShort возвращает ссылку по короткому идентификатору
func (r *PostgresRepository) FindByShort(ctx context.Context, short string) (models.Link, error) {
	return r.findOne(ctx, queryFindByShort, short)
}

// FindByID возвращает ссылку по первичному ключу
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (models.Link, error) {
	return r.findOne(ctx, queryFindByID, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (models.Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Link{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get link from database", zap.Any("key", arg), zap.Error(err))
		return models.Link{}, err
	}
	return link, nil
}

// ListByOwner возвращает ссылки пользователя
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	rows, err := r.db.QueryContext(ctx, queryListByOwner, ownerID)
	if err != nil {
		r.logger.Error("Failed to list links", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

// Update сохраняет флаг приостановки и срок действия
func (r *PostgresRepository) Update(ctx context.Context, link models.Link) error {
	var expiration sql.NullTime
	if link.ExpirationDate != nil {
		expiration = sql.NullTime{Time: *link.ExpirationDate, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, queryUpdateSettings, link.Suspended, expiration, link.ID)
	if err != nil {
		r.logger.Error("Failed to update link", zap.Int64("id", link.ID), zap.Error(err))
		return err
	}
	return requireAffected(res)
}

// Delete удаляет ссылку
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, queryDeleteLink, id)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return requireAffected(res)
}

// IncrementHits увеличивает счётчик одной командой UPDATE, если ссылка активна
func (r *PostgresRepository) IncrementHits(ctx context.Context, short string, now time.Time) (models.Link, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx, queryIncrementHits, short, now))
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Failed to increment hit count", zap.String("short", short), zap.Error(err))
		return models.Link{}, err
	}
	// Строка не обновлена: ссылки нет либо она неактивна
	exists, err := r.Exists(ctx, short)
	if err != nil {
		return models.Link{}, err
	}
	if !exists {
		return models.Link{}, ErrNotFound
	}
	return models.Link{}, ErrInactive
}

// SuspendExpired приостанавливает истёкшую ссылку; повторный вызов ничего не меняет
func (r *PostgresRepository) SuspendExpired(ctx context.Context, short string, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, querySuspendExpired, short, now); err != nil {
		r.logger.Error("Failed to suspend expired link", zap.String("short", short), zap.Error(err))
		return err
	}
	return nil
}

// Stats возвращает количество ссылок и уникальных владельцев
func (r *PostgresRepository) Stats(ctx context.Context) (int, int, error) {
	var links, owners int
	if err := r.db.QueryRowContext(ctx, queryStats).Scan(&links, &owners); err != nil {
		r.logger.Error("Failed to get stats", zap.Error(err))
		return 0, 0, err
	}
	return links, owners, nil
}

// Clear очищает все записи в таблице links
func (r *PostgresRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, queryClear); err != nil {
		r.logger.Error("Failed to clear database", zap.Error(err))
		return err
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

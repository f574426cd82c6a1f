package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/tempizhere/shortify/internal/models"
	"go.uber.org/zap"
)

// MemoryUserRepository реализует UserRepository в памяти
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// NewMemoryUserRepository создаёт новый экземпляр MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

// normalizeEmail приводит email к виду, по которому проверяется уникальность
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create сохраняет пользователя, если email свободен
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := normalizeEmail(user.Email)
	if _, ok := r.byEmail[email]; ok {
		return ErrDuplicateKey
	}
	if _, ok := r.byID[user.ID]; ok {
		return ErrDuplicateKey
	}
	r.byID[user.ID] = user
	r.byEmail[email] = user.ID
	return nil
}

// FindByID возвращает пользователя по идентификатору
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByEmail возвращает пользователя по email
func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

// Update сохраняет изменённые поля пользователя
func (r *MemoryUserRepository) Update(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	oldEmail, newEmail := normalizeEmail(old.Email), normalizeEmail(user.Email)
	if oldEmail != newEmail {
		if _, taken := r.byEmail[newEmail]; taken {
			return ErrDuplicateKey
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = user.ID
	}
	r.byID[user.ID] = user
	return nil
}

const userColumns = "id, first_name, last_name, email, password_hash, created_at, is_verified"

const (
	queryCreateUser      = "INSERT INTO users (id, first_name, last_name, email, password_hash, is_verified) VALUES ($1, $2, $3, $4, $5, $6)"
	queryFindUserByID    = "SELECT " + userColumns + " FROM users WHERE id = $1"
	queryFindUserByEmail = "SELECT " + userColumns + " FROM users WHERE lower(email) = lower($1)"
	queryUpdateUser      = "UPDATE users SET first_name = $1, last_name = $2, email = $3, password_hash = $4, is_verified = $5 WHERE id = $6"
)

// PostgresUserRepository реализует UserRepository с использованием PostgreSQL
type PostgresUserRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresUserRepository создаёт новый экземпляр PostgresUserRepository
func NewPostgresUserRepository(db Database, logger *zap.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{db: db, logger: logger}
}

// Create сохраняет пользователя; занятый email даёт ErrDuplicateKey
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	_, err := r.db.ExecContext(ctx, queryCreateUser,
		user.ID, user.FirstName, user.LastName, normalizeEmail(user.Email), user.PasswordHash, user.Verified)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		r.logger.Error("Failed to create user", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

// FindByID возвращает пользователя по идентификатору
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, queryFindUserByID, id)
}

// FindByEmail возвращает пользователя по email
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, queryFindUserByEmail, normalizeEmail(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query, arg string) (models.User, error) {
	var user models.User
	var first, last sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &first, &last, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return models.User{}, err
	}
	user.FirstName, user.LastName = first.String, last.String
	return user, nil
}

// Update сохраняет изменённые поля пользователя
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	res, err := r.db.ExecContext(ctx, queryUpdateUser,
		user.FirstName, user.LastName, normalizeEmail(user.Email), user.PasswordHash, user.Verified, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		r.logger.Error("Failed to update user", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return requireAffected(res)
}

// Package models содержит сущности хранилища и DTO HTTP API.
package models

import "time"

// Link описывает соответствие короткого идентификатора исходному URL
type Link struct {
	ID             int64      `json:"id"`
	Original       string     `json:"original"`
	Short          string     `json:"short"`
	CreatedAt      time.Time  `json:"created_at"`
	HitCount       int64      `json:"hit_count"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Suspended      bool       `json:"suspended"`
	OwnerID        string     `json:"owner_id"`
}

// IsExpired сообщает, истёк ли срок действия ссылки на момент now
func (l Link) IsExpired(now time.Time) bool {
	return l.ExpirationDate != nil && l.ExpirationDate.Before(now)
}

// IsOwnedBy проверяет владельца ссылки
func (l Link) IsOwnedBy(userID string) bool {
	return l.OwnerID == userID
}

// User представляет учётную запись пользователя
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Verified     bool      `json:"is_verified"`
}

// CreateLinkRequest тело запроса POST /api/id/
type CreateLinkRequest struct {
	URL      *string `json:"url"`
	CustomID string  `json:"custom_id"`
}

// CreateLinkResponse тело ответа POST /api/id/
type CreateLinkResponse struct {
	URL       string `json:"url"`
	ShortLink string `json:"short_link"`
}

// LookupResponse тело ответа GET /api/id/{short_id}/
type LookupResponse struct {
	URL string `json:"url"`
}

// ErrorResponse единый формат ошибок JSON API
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserLinkResponse элемент списка ссылок пользователя
type UserLinkResponse struct {
	ID             int64      `json:"id"`
	URL            string     `json:"url"`
	ShortLink      string     `json:"short_link"`
	HitCount       int64      `json:"hit_count"`
	Suspended      bool       `json:"suspended"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// LinkSettingsRequest тело запроса PATCH /api/user/urls/{id}.
// ExpirationDate принимает дату "2006-01-02" или RFC 3339; пустая строка снимает срок.
type LinkSettingsRequest struct {
	Suspended      *bool   `json:"suspended"`
	ExpirationDate *string `json:"expiration_date"`
}

// RegisterRequest тело запроса регистрации
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// LoginRequest тело запроса входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse содержит выданный токен сессии
type LoginResponse struct {
	Token string `json:"token"`
}

// EmailRequest тело запроса восстановления пароля
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetRequest тело запроса установки нового пароля
type PasswordResetRequest struct {
	Password string `json:"password" validate:"required,min=8"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

// ProfileRequest тело запроса обновления профиля
type ProfileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// PasswordChangeRequest тело запроса смены пароля
type PasswordChangeRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	Password    string `json:"password" validate:"required,min=8"`
	Confirm     string `json:"confirm" validate:"required,eqfield=Password"`
}

// EmailChangeRequest тело запроса смены email
type EmailChangeRequest struct {
	Email string `json:"email" validate:"required,email,max=100"`
}

// MessageResponse ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// StatsResponse ответ эндпоинта статистики
type StatsResponse struct {
	URLs  int `json:"urls"`
	Users int `json:"users"`
}

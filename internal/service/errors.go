package service

import (
	"errors"

	"github.com/tempizhere/shortify/internal/repository"
	"github.com/tempizhere/shortify/internal/shortid"
)

// Ошибки операций со ссылками
var (
	ErrMissingField      = errors.New("required field is missing")
	ErrInvalidFormat     = shortid.ErrInvalidFormat
	ErrAlreadyTaken      = shortid.ErrAlreadyTaken
	ErrCapacityExhausted = shortid.ErrCapacityExhausted
	ErrNotFound          = repository.ErrNotFound
	ErrForbidden         = errors.New("link belongs to another user")
	ErrInvalidDate       = errors.New("expiration date is in the past")
)

// Ошибки учётных записей
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrValidation         = errors.New("validation failed")
)

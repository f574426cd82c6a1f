// Package shortid генерирует и проверяет короткие идентификаторы ссылок.
package shortid

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strings"
)

const (
	// Alphabet содержит допустимые символы короткого идентификатора
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength длина автоматически сгенерированного идентификатора
	DefaultLength = 6
	// MaxLength максимальная длина пользовательского идентификатора
	MaxLength = 16
	// DefaultMaxAttempts ограничивает число попыток генерации
	DefaultMaxAttempts = 64
)

var (
	// ErrInvalidFormat идентификатор пустой, длиннее MaxLength или содержит недопустимые символы
	ErrInvalidFormat = errors.New("invalid short id format")
	// ErrAlreadyTaken идентификатор уже занят
	ErrAlreadyTaken = errors.New("short id already taken")
	// ErrCapacityExhausted не удалось подобрать свободный идентификатор
	ErrCapacityExhausted = errors.New("failed to generate unique short id")
)

// ReservedNames корневые пути, которые HTTP-сервер обслуживает сам; ссылка с таким именем была бы недостижима
var ReservedNames = []string{"api", "metrics", "ping"}

// ExistsFunc сообщает, занят ли идентификатор
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Generator генерирует случайные идентификаторы заданной длины
type Generator struct {
	length      int
	alphabet    string
	maxAttempts int
	random      io.Reader
	reserved    map[string]struct{}
}

// Option настраивает Generator
type Option func(*Generator)

// WithLength задаёт длину генерируемых идентификаторов
func WithLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.length = n
		}
	}
}

// WithAlphabet задаёт алфавит генерации
func WithAlphabet(alphabet string) Option {
	return func(g *Generator) {
		if alphabet != "" {
			g.alphabet = alphabet
		}
	}
}

// WithMaxAttempts задаёт предел числа попыток в GenerateUnique
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithRandom задаёт источник случайных байтов
func WithRandom(r io.Reader) Option {
	return func(g *Generator) {
		if r != nil {
			g.random = r
		}
	}
}

// WithReserved добавляет имена, которые нельзя занять
func WithReserved(names ...string) Option {
	return func(g *Generator) {
		for _, name := range names {
			g.reserved[name] = struct{}{}
		}
	}
}

// NewGenerator создаёт генератор с параметрами по умолчанию; ReservedNames зарезервированы всегда
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		length:      DefaultLength,
		alphabet:    Alphabet,
		maxAttempts: DefaultMaxAttempts,
		random:      rand.Reader,
		reserved:    make(map[string]struct{}, len(ReservedNames)),
	}
	for _, name := range ReservedNames {
		g.reserved[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsReserved сообщает, зарезервировано ли имя
func (g *Generator) IsReserved(name string) bool {
	_, ok := g.reserved[name]
	return ok
}

// Random возвращает равномерно распределённую случайную строку из алфавита
func (g *Generator) Random() (string, error) {
	base := big.NewInt(int64(len(g.alphabet)))
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		idx, err := rand.Int(g.random, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(g.alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// GenerateUnique генерирует идентификаторы, пока exists не сообщит об отсутствии коллизии
func (g *Generator) GenerateUnique(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := g.Random()
		if err != nil {
			return "", err
		}
		if g.IsReserved(candidate) {
			continue
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrCapacityExhausted
}

// ValidateCustom проверяет формат пользовательского идентификатора и его доступность.
// Зарезервированное имя считается занятым.
func (g *Generator) ValidateCustom(ctx context.Context, candidate string, exists ExistsFunc) error {
	if err := Validate(candidate); err != nil {
		return err
	}
	if g.IsReserved(candidate) {
		return ErrAlreadyTaken
	}
	taken, err := exists(ctx, candidate)
	if err != nil {
		return err
	}
	if taken {
		return ErrAlreadyTaken
	}
	return nil
}

// Validate проверяет только формат идентификатора
func Validate(candidate string) error {
	if len(candidate) == 0 || len(candidate) > MaxLength {
		return ErrInvalidFormat
	}
	for i := 0; i < len(candidate); i++ {
		if !isAlnum(candidate[i]) {
			return ErrInvalidFormat
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

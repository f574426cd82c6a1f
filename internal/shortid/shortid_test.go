package shortid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// existsIn возвращает ExistsFunc поверх множества занятых идентификаторов
func existsIn(taken ...string) ExistsFunc {
	set := make(map[string]struct{}, len(taken))
	for _, id := range taken {
		set[id] = struct{}{}
	}
	return func(_ context.Context, candidate string) (bool, error) {
		_, ok := set[candidate]
		return ok, nil
	}
}

func TestGenerator_Random(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 200; i++ {
		id, err := g.Random()
		require.NoError(t, err)
		assert.Len(t, id, DefaultLength)
		assert.NoError(t, Validate(id), "Generated id %q must be alphanumeric", id)
	}
}

func TestGenerator_GenerateUnique(t *testing.T) {
	ctx := context.Background()

	// Тест 1: без коллизий возвращается первый кандидат
	g := NewGenerator()
	id, err := g.GenerateUnique(ctx, existsIn())
	require.NoError(t, err)
	assert.Len(t, id, 6)

	// Тест 2: коллизии пропускаются
	calls := 0
	id, err = g.GenerateUnique(ctx, func(_ context.Context, candidate string) (bool, error) {
		calls++
		return calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "Generator should retry until a free id is found")
	assert.Len(t, id, 6)

	// Тест 3: единственный символ алфавита, пространство исчерпано
	g = NewGenerator(WithAlphabet("a"), WithLength(2), WithMaxAttempts(5))
	_, err = g.GenerateUnique(ctx, existsIn("aa"))
	assert.ErrorIs(t, err, ErrCapacityExhausted)

	// Тест 4: ошибка проверки пробрасывается
	storeErr := errors.New("store down")
	_, err = NewGenerator().GenerateUnique(ctx, func(context.Context, string) (bool, error) {
		return false, storeErr
	})
	assert.ErrorIs(t, err, storeErr)

	// Тест 5: отменённый контекст
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewGenerator().GenerateUnique(cancelled, existsIn())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerator_RandomSourceError(t *testing.T) {
	g := NewGenerator(WithRandom(strings.NewReader("")))
	_, err := g.Random()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		wantErr   error
	}{
		{"short", "py", nil},
		{"single char", "a", nil},
		{"max length", strings.Repeat("Z", 16), nil},
		{"digits", "2024", nil},
		{"empty", "", ErrInvalidFormat},
		{"too long", strings.Repeat("a", 17), ErrInvalidFormat},
		{"dash", "my-link", ErrInvalidFormat},
		{"underscore", "my_link", ErrInvalidFormat},
		{"space", "my link", ErrInvalidFormat},
		{"cyrillic", "ссылка", ErrInvalidFormat},
		{"slash", "a/b", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.candidate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerator_ValidateCustom(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator()

	assert.NoError(t, g.ValidateCustom(ctx, "py", existsIn("go")))
	assert.ErrorIs(t, g.ValidateCustom(ctx, "go", existsIn("go")), ErrAlreadyTaken)
	assert.ErrorIs(t, g.ValidateCustom(ctx, "go!", existsIn()), ErrInvalidFormat)

	// Формат проверяется до обращения к хранилищу
	called := false
	err := g.ValidateCustom(ctx, strings.Repeat("x", 17), func(context.Context, string) (bool, error) {
		called = true
		return false, nil
	})
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.False(t, called)
}

func TestGenerator_Reserved(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(WithReserved("admin"))

	for _, name := range append([]string{"admin"}, ReservedNames...) {
		assert.True(t, g.IsReserved(name), name)
		assert.ErrorIs(t, g.ValidateCustom(ctx, name, existsIn()), ErrAlreadyTaken, name)
	}
	// Пути чувствительны к регистру
	assert.NoError(t, g.ValidateCustom(ctx, "Ping", existsIn()))

	// Генерация пропускает зарезервированные имена, не обращаясь к хранилищу
	only := NewGenerator(WithAlphabet("p"), WithLength(2), WithReserved("pp"), WithMaxAttempts(3))
	calls := 0
	_, err := only.GenerateUnique(ctx, func(context.Context, string) (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrCapacityExhausted)
	assert.Zero(t, calls)
}

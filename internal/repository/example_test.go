package repository_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tempizhere/shortify/internal/repository"
)

// ExampleMemoryRepository_Insert демонстрирует сохранение ссылки в in-memory репозитории
func ExampleMemoryRepository_Insert() {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()

	link, err := repo.Insert(ctx, "https://www.python.org", "py", "user-123")
	if err != nil {
		fmt.Printf("Ошибка сохранения: %v\n", err)
		return
	}
	fmt.Printf("Сохранена ссылка %s -> %s\n", link.Short, link.Original)

	// Повторное использование short отклоняется самим хранилищем
	_, err = repo.Insert(ctx, "https://go.dev", "py", "user-456")
	fmt.Printf("Дубликат: %t\n", errors.Is(err, repository.ErrDuplicateKey))

	// Output:
	// Сохранена ссылка py -> https://www.python.org
	// Дубликат: true
}

// ExampleMemoryRepository_IncrementHits демонстрирует учёт переходов
func ExampleMemoryRepository_IncrementHits() {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	repo.Insert(ctx, "https://go.dev", "go", "user-123")

	for i := 0; i < 3; i++ {
		repo.IncrementHits(ctx, "go", time.Now())
	}

	link, _ := repo.FindByShort(ctx, "go")
	fmt.Printf("Переходов: %d\n", link.HitCount)

	// Output:
	// Переходов: 3
}

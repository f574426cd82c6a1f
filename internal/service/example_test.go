package service_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tempizhere/shortify/internal/repository"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
)

// ExampleService_Allocate демонстрирует создание короткой ссылки
func ExampleService_Allocate() {
	ctx := context.Background()
	svc := service.NewService(repository.NewMemoryRepository(), "http://localhost:8080", zap.NewNop())

	// Без custom_id идентификатор генерируется
	link, err := svc.Allocate(ctx, "https://www.python.org", "", "user-123")
	if err != nil {
		fmt.Printf("Ошибка создания ссылки: %v\n", err)
		return
	}
	fmt.Printf("Длина ID: %d символов\n", len(link.Short))

	// Пользовательский идентификатор
	link, _ = svc.Allocate(ctx, "https://www.python.org", "py", "user-123")
	fmt.Println(svc.ShortURL(link.Short))

	// Повторно занять его нельзя
	_, err = svc.Allocate(ctx, "https://go.dev", "py", "user-456")
	fmt.Printf("Занят: %t\n", errors.Is(err, service.ErrAlreadyTaken))

	// Output:
	// Длина ID: 6 символов
	// http://localhost:8080/py
	// Занят: true
}

// ExampleService_Resolve демонстрирует переход по ссылке и приостановку по сроку
func ExampleService_Resolve() {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, "http://localhost:8080", zap.NewNop())

	link, _ := svc.Allocate(ctx, "https://go.dev", "go", "user-123")
	res, _ := svc.Resolve(ctx, "go")
	fmt.Printf("%s -> %s\n", res.Outcome, res.Original)

	// Истёкшая ссылка приостанавливается при первом переходе
	past := time.Now().Add(-time.Hour)
	link.ExpirationDate = &past
	_ = repo.Update(ctx, link)
	res, _ = svc.Resolve(ctx, "go")
	stored, _ := repo.FindByShort(ctx, "go")
	fmt.Printf("%s, suspended=%t\n", res.Outcome, stored.Suspended)

	res, _ = svc.Resolve(ctx, "missing")
	fmt.Println(res.Outcome)

	// Output:
	// redirect -> https://go.dev
	// suspended, suspended=true
	// not_found
}

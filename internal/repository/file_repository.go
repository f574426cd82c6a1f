package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tempizhere/shortify/internal/models"
	"go.uber.org/zap"
)

// FileRepository реализует интерфейс Repository поверх MemoryRepository,
// сохраняя снимок всех ссылок в файл в формате JSON Lines после каждого изменения
type FileRepository struct {
	*MemoryRepository
	filePath string
	logger   *zap.Logger

	// writeMu связывает изменение в памяти с записью снимка
	writeMu sync.Mutex
}

// NewFileRepository создаёт новый экземпляр FileRepository и загружает сохранённые ссылки
func NewFileRepository(filePath string, logger *zap.Logger) (*FileRepository, error) {
	repo := &FileRepository{
		MemoryRepository: NewMemoryRepository(),
		filePath:         filePath,
		logger:           logger,
	}

	// Создаём директорию, если не существует
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return repo, nil
		}
		return nil, err
	}
	defer file.Close()

	// Читаем файл построчно
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var link models.Link
		if err := json.Unmarshal(scanner.Bytes(), &link); err != nil {
			// Пропускаем некорректные строки и логируем это
			repo.logger.Warn("Skipping invalid JSON line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		if link.ID == 0 || link.Short == "" {
			repo.logger.Warn("Skipping incomplete link record", zap.String("line", scanner.Text()))
			continue
		}
		repo.restore(link)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return repo, nil
}

// Insert сохраняет ссылку и записывает снимок на диск; при ошибке записи ссылка удаляется из памяти
func (r *FileRepository) Insert(ctx context.Context, original, short, ownerID string) (models.Link, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	link, err := r.MemoryRepository.Insert(ctx, original, short, ownerID)
	if err != nil {
		return models.Link{}, err
	}
	if err := r.persist(); err != nil {
		_ = r.MemoryRepository.Delete(ctx, link.ID)
		return models.Link{}, err
	}
	return link, nil
}

// Update сохраняет настройки ссылки и записывает снимок на диск; при ошибке записи настройки откатываются
func (r *FileRepository) Update(ctx context.Context, link models.Link) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old, err := r.MemoryRepository.FindByID(ctx, link.ID)
	if err != nil {
		return err
	}
	if err := r.MemoryRepository.Update(ctx, link); err != nil {
		return err
	}
	if err := r.persist(); err != nil {
		r.restore(old)
		return err
	}
	return nil
}

// Delete удаляет ссылку и записывает снимок на диск; при ошибке записи ссылка возвращается
func (r *FileRepository) Delete(ctx context.Context, id int64) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old, err := r.MemoryRepository.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.MemoryRepository.Delete(ctx, id); err != nil {
		return err
	}
	if err := r.persist(); err != nil {
		r.restore(old)
		return err
	}
	return nil
}

// IncrementHits увеличивает счётчик и записывает снимок на диск.
// Ошибка записи только логируется: счётчик в памяти верен и попадёт в следующий снимок.
func (r *FileRepository) IncrementHits(ctx context.Context, short string, now time.Time) (models.Link, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	link, err := r.MemoryRepository.IncrementHits(ctx, short, now)
	if err != nil {
		return models.Link{}, err
	}
	if err := r.persist(); err != nil {
		r.logger.Warn("Hit count not persisted", zap.String("short", short), zap.Error(err))
	}
	return link, nil
}

// SuspendExpired приостанавливает истёкшую ссылку и записывает снимок на диск.
// Как и счётчик, приостановка не откатывается при ошибке записи.
func (r *FileRepository) SuspendExpired(ctx context.Context, short string, now time.Time) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.MemoryRepository.SuspendExpired(ctx, short, now); err != nil {
		return err
	}
	if err := r.persist(); err != nil {
		r.logger.Warn("Suspension not persisted", zap.String("short", short), zap.Error(err))
	}
	return nil
}

// Clear очищает хранилище и файл; при ошибке записи данные в памяти восстанавливаются
func (r *FileRepository) Clear(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old := r.snapshot()
	if err := r.MemoryRepository.Clear(ctx); err != nil {
		return err
	}
	if err := r.persist(); err != nil {
		for _, link := range old {
			r.restore(link)
		}
		return err
	}
	return nil
}

// persist атомарно перезаписывает файл актуальным снимком; вызывается под writeMu
func (r *FileRepository) persist() error {
	tmp, err := os.CreateTemp(filepath.Dir(r.filePath), filepath.Base(r.filePath)+".*.tmp")
	if err != nil {
		r.logger.Error("Failed to create temp file", zap.String("path", r.filePath), zap.Error(err))
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, link := range r.snapshot() {
		if err := enc.Encode(link); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		r.logger.Error("Failed to write links file", zap.String("path", r.filePath), zap.Error(err))
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), r.filePath); err != nil {
		r.logger.Error("Failed to replace links file", zap.String("path", r.filePath), zap.Error(err))
		return err
	}
	return nil
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tempizhere/shortify/internal/models"
)

// MemoryRepository реализует интерфейс Repository с использованием map.
// Все операции выполняются под мьютексом, поэтому проверка уникальности и вставка атомарны.
type MemoryRepository struct {
	mu      sync.RWMutex
	byShort map[string]*models.Link
	byID    map[int64]string
	nextID  int64
	now     func() time.Time
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byShort: make(map[string]*models.Link),
		byID:    make(map[int64]string),
		now:     time.Now,
	}
}

// Exists проверяет наличие короткого идентификатора
func (r *MemoryRepository) Exists(_ context.Context, short string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byShort[short]
	return ok, nil
}

// Insert сохраняет ссылку, если short ещё не занят
func (r *MemoryRepository) Insert(_ context.Context, original, short, ownerID string) (models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byShort[short]; ok {
		return models.Link{}, ErrDuplicateKey
	}
	r.nextID++
	link := &models.Link{
		ID:        r.nextID,
		Original:  original,
		Short:     short,
		CreatedAt: r.now().UTC(),
		OwnerID:   ownerID,
	}
	r.byShort[short] = link
	r.byID[link.ID] = short
	return copyLink(link), nil
}

// FindByShort возвращает ссылку по короткому идентификатору
func (r *MemoryRepository) FindByShort(_ context.Context, short string) (models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.byShort[short]
	if !ok {
		return models.Link{}, ErrNotFound
	}
	return copyLink(link), nil
}

// FindByID возвращает ссылку по первичному ключу
func (r *MemoryRepository) FindByID(_ context.Context, id int64) (models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	short, ok := r.byID[id]
	if !ok {
		return models.Link{}, ErrNotFound
	}
	return copyLink(r.byShort[short]), nil
}

// ListByOwner возвращает ссылки пользователя, новые первыми
func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID string) ([]models.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var links []models.Link
	for _, link := range r.byShort {
		if link.OwnerID == ownerID {
			links = append(links, copyLink(link))
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID > links[j].ID })
	return links, nil
}

// Update сохраняет флаг приостановки и срок действия
func (r *MemoryRepository) Update(_ context.Context, link models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	short, ok := r.byID[link.ID]
	if !ok {
		return ErrNotFound
	}
	stored := r.byShort[short]
	stored.Suspended = link.Suspended
	stored.ExpirationDate = copyTime(link.ExpirationDate)
	return nil
}

// Delete удаляет ссылку по первичному ключу
func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	short, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byShort, short)
	return nil
}

// IncrementHits увеличивает счётчик, если ссылка активна на момент now
func (r *MemoryRepository) IncrementHits(_ context.Context, short string, now time.Time) (models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.byShort[short]
	if !ok {
		return models.Link{}, ErrNotFound
	}
	if link.Suspended || link.IsExpired(now) {
		return models.Link{}, ErrInactive
	}
	link.HitCount++
	return copyLink(link), nil
}

// SuspendExpired приостанавливает ссылку, если её срок истёк
func (r *MemoryRepository) SuspendExpired(_ context.Context, short string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.byShort[short]
	if !ok {
		return ErrNotFound
	}
	if link.IsExpired(now) {
		link.Suspended = true
	}
	return nil
}

// Stats возвращает количество ссылок и уникальных владельцев
func (r *MemoryRepository) Stats(_ context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners := make(map[string]struct{})
	for _, link := range r.byShort {
		owners[link.OwnerID] = struct{}{}
	}
	return len(r.byShort), len(owners), nil
}

// Clear очищает хранилище
func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byShort = make(map[string]*models.Link)
	r.byID = make(map[int64]string)
	r.nextID = 0
	return nil
}

// restore добавляет ранее сохранённую запись с её исходным идентификатором
func (r *MemoryRepository) restore(link models.Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byID[link.ID]; ok {
		delete(r.byShort, old)
	}
	stored := copyLink(&link)
	r.byShort[link.Short] = &stored
	r.byID[link.ID] = link.Short
	if link.ID > r.nextID {
		r.nextID = link.ID
	}
}

// snapshot возвращает копию всех записей, упорядоченную по идентификатору
func (r *MemoryRepository) snapshot() []models.Link {
	r.mu.RLock()
	defer r.mu.RUnlock()
	links := make([]models.Link, 0, len(r.byShort))
	for _, link := range r.byShort {
		links = append(links, copyLink(link))
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links
}

func copyLink(link *models.Link) models.Link {
	c := *link
	c.ExpirationDate = copyTime(link.ExpirationDate)
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tempizhere/shortify/internal/metrics"
	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/repository"
	"github.com/tempizhere/shortify/internal/shortid"
	"go.uber.org/zap"
)

// Outcome результат разрешения короткой ссылки
type Outcome int

const (
	// OutcomeNotFound ссылка не существует
	OutcomeNotFound Outcome = iota
	// OutcomeSuspended ссылка приостановлена вручную или по истечении срока
	OutcomeSuspended
	// OutcomeRedirect переход разрешён, счётчик увеличен
	OutcomeRedirect
)

// String возвращает имя исхода для логов и метрик
func (o Outcome) String() string {
	switch o {
	case OutcomeRedirect:
		return metrics.OutcomeRedirect
	case OutcomeSuspended:
		return metrics.OutcomeSuspended
	default:
		return metrics.OutcomeNotFound
	}
}

// Resolution результат Resolve; Original заполнен только для OutcomeRedirect
type Resolution struct {
	Outcome  Outcome
	Original string
}

// SettingsUpdate изменяемые владельцем настройки ссылки; nil означает «не менять»
type SettingsUpdate struct {
	Suspended       *bool
	ExpirationDate  *time.Time
	ClearExpiration bool
}

// Service реализует логику работы с короткими ссылками
type Service struct {
	repo    repository.Repository
	baseURL string
	gen     *shortid.Generator
	now     func() time.Time
	logger  *zap.Logger
}

// Option настраивает Service
type Option func(*Service)

// WithGenerator подменяет генератор коротких идентификаторов
func WithGenerator(gen *shortid.Generator) Option {
	return func(s *Service) {
		s.gen = gen
	}
}

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService создаёт новый экземпляр Service
func NewService(repo repository.Repository, baseURL string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		gen:     shortid.NewGenerator(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShortURL возвращает абсолютную короткую ссылку
func (s *Service) ShortURL(short string) string {
	return s.baseURL + "/" + short
}

// Allocate создаёт ссылку с заданным или сгенерированным коротким идентификатором
func (s *Service) Allocate(ctx context.Context, original, requestedShort, ownerID string) (models.Link, error) {
	original = strings.TrimSpace(original)
	if original == "" || ownerID == "" {
		return models.Link{}, ErrMissingField
	}

	if requestedShort != "" {
		if err := s.gen.ValidateCustom(ctx, requestedShort, s.repo.Exists); err != nil {
			return models.Link{}, err
		}
		link, err := s.repo.Insert(ctx, original, requestedShort, ownerID)
		if errors.Is(err, repository.ErrDuplicateKey) {
			// проверку выше обогнал параллельный запрос
			return models.Link{}, ErrAlreadyTaken
		}
		if err != nil {
			return models.Link{}, err
		}
		metrics.LinksCreated.WithLabelValues("custom").Inc()
		return link, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		short, err := s.gen.GenerateUnique(ctx, s.repo.Exists)
		if err != nil {
			return models.Link{}, err
		}
		link, err := s.repo.Insert(ctx, original, short, ownerID)
		if err == nil {
			metrics.LinksCreated.WithLabelValues("auto").Inc()
			return link, nil
		}
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return models.Link{}, err
		}
		s.logger.Warn("Generated short id taken concurrently",
			zap.String("short", short), zap.Int("attempt", attempt+1))
		metrics.AllocationRetries.Inc()
	}
	return models.Link{}, repository.ErrDuplicateKey
}

// Resolve решает, можно ли перейти по короткой ссылке, и учитывает переход
func (s *Service) Resolve(ctx context.Context, short string) (Resolution, error) {
	res, err := s.resolve(ctx, short)
	if err != nil {
		return Resolution{}, err
	}
	metrics.Resolutions.WithLabelValues(res.Outcome.String()).Inc()
	return res, nil
}

func (s *Service) resolve(ctx context.Context, short string) (Resolution, error) {
	link, err := s.repo.FindByShort(ctx, short)
	if errors.Is(err, repository.ErrNotFound) {
		return Resolution{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	if link.Suspended {
		return Resolution{Outcome: OutcomeSuspended}, nil
	}

	now := s.now()
	if link.IsExpired(now) {
		if err := s.suspendExpired(ctx, short, now); err != nil {
			return Resolution{}, err
		}
		return Resolution{Outcome: OutcomeSuspended}, nil
	}

	updated, err := s.repo.IncrementHits(ctx, short, now)
	switch {
	case err == nil:
		return Resolution{Outcome: OutcomeRedirect, Original: updated.Original}, nil
	case errors.Is(err, repository.ErrInactive):
		// между чтением и инкрементом ссылку приостановили или срок истёк
		if err := s.suspendExpired(ctx, short, now); err != nil {
			return Resolution{}, err
		}
		return Resolution{Outcome: OutcomeSuspended}, nil
	case errors.Is(err, repository.ErrNotFound):
		return Resolution{Outcome: OutcomeNotFound}, nil
	default:
		return Resolution{}, err
	}
}

func (s *Service) suspendExpired(ctx context.Context, short string, now time.Time) error {
	err := s.repo.SuspendExpired(ctx, short, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Info("Link suspended after expiration", zap.String("short", short))
	metrics.ExpiredSuspensions.Inc()
	return nil
}

// Lookup возвращает ссылку без учёта перехода и без проверки статуса
func (s *Service) Lookup(ctx context.Context, short string) (models.Link, error) {
	return s.repo.FindByShort(ctx, short)
}

// ListByOwner возвращает ссылки пользователя
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Link, error) {
	if ownerID == "" {
		return nil, ErrMissingField
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// UpdateSettings меняет настройки ссылки от имени её владельца
func (s *Service) UpdateSettings(ctx context.Context, linkID int64, requesterID string, upd SettingsUpdate) (models.Link, error) {
	link, err := s.ownedLink(ctx, linkID, requesterID)
	if err != nil {
		return models.Link{}, err
	}

	if upd.ExpirationDate != nil {
		if dayOf(*upd.ExpirationDate).Before(dayOf(s.now())) {
			return models.Link{}, ErrInvalidDate
		}
		expiration := upd.ExpirationDate.UTC()
		link.ExpirationDate = &expiration
	} else if upd.ClearExpiration {
		link.ExpirationDate = nil
	}
	if upd.Suspended != nil {
		link.Suspended = *upd.Suspended
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return models.Link{}, err
	}
	s.logger.Info("Link settings updated",
		zap.Int64("id", link.ID), zap.Bool("suspended", link.Suspended))
	return link, nil
}

// Delete удаляет ссылку от имени её владельца
func (s *Service) Delete(ctx context.Context, linkID int64, requesterID string) error {
	if _, err := s.ownedLink(ctx, linkID, requesterID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, linkID)
}

// Stats возвращает количество ссылок и их владельцев
func (s *Service) Stats(ctx context.Context) (models.StatsResponse, error) {
	links, owners, err := s.repo.Stats(ctx)
	if err != nil {
		return models.StatsResponse{}, err
	}
	return models.StatsResponse{URLs: links, Users: owners}, nil
}

func (s *Service) ownedLink(ctx context.Context, linkID int64, requesterID string) (models.Link, error) {
	link, err := s.repo.FindByID(ctx, linkID)
	if err != nil {
		return models.Link{}, err
	}
	if !link.IsOwnedBy(requesterID) {
		return models.Link{}, ErrForbidden
	}
	return link, nil
}

// dayOf отбрасывает время суток, оставляя календарную дату в UTC
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dateLayout формат даты без времени
const dateLayout = "2006-01-02"

// ParseExpirationDate разбирает срок действия в формате "2006-01-02" или RFC 3339.
// Дата без времени означает полночь UTC.
func ParseExpirationDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse expiration date %q: %w", value, err)
	}
	return t, nil
}

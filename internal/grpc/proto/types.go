// Package proto содержит сообщения и описание gRPC сервиса shortify.v1.LinkService
package proto

// CreateLinkRequest запрос на создание короткой ссылки
type CreateLinkRequest struct {
	URL      string `json:"url"`
	CustomID string `json:"custom_id,omitempty"`
}

// CreateLinkResponse созданная короткая ссылка
type CreateLinkResponse struct {
	URL       string `json:"url"`
	ShortLink string `json:"short_link"`
}

// GetLinkRequest запрос исходного URL без учёта перехода
type GetLinkRequest struct {
	ShortID string `json:"short_id"`
}

// GetLinkResponse исходный URL
type GetLinkResponse struct {
	URL string `json:"url"`
}

// ResolveLinkRequest запрос перехода по короткой ссылке
type ResolveLinkRequest struct {
	ShortID string `json:"short_id"`
}

// ResolveLinkResponse адрес перенаправления
type ResolveLinkResponse struct {
	URL string `json:"url"`
}

// Link ссылка пользователя. Даты передаются в RFC 3339.
type Link struct {
	ID             int64  `json:"id"`
	URL            string `json:"url"`
	ShortLink      string `json:"short_link"`
	HitCount       int64  `json:"hit_count"`
	Suspended      bool   `json:"suspended"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// ListUserLinksRequest запрос ссылок текущего пользователя
type ListUserLinksRequest struct{}

// ListUserLinksResponse ссылки пользователя
type ListUserLinksResponse struct {
	Links []*Link `json:"links"`
}

// UpdateLinkSettingsRequest изменение настроек ссылки.
// Пустая строка в ExpirationDate снимает срок действия.
type UpdateLinkSettingsRequest struct {
	ID             int64   `json:"id"`
	Suspended      *bool   `json:"suspended,omitempty"`
	ExpirationDate *string `json:"expiration_date,omitempty"`
}

// UpdateLinkSettingsResponse ссылка после изменения
type UpdateLinkSettingsResponse struct {
	Link *Link `json:"link"`
}

// DeleteLinkRequest запрос удаления ссылки
type DeleteLinkRequest struct {
	ID int64 `json:"id"`
}

// DeleteLinkResponse пустой ответ на удаление
type DeleteLinkResponse struct{}

// PingRequest запрос проверки хранилища
type PingRequest struct{}

// PingResponse состояние хранилища
type PingResponse struct {
	StorageAvailable bool `json:"storage_available"`
}

// GetStatsRequest запрос статистики сервиса
type GetStatsRequest struct{}

// GetStatsResponse количество ссылок и их владельцев
type GetStatsResponse struct {
	URLs  int32 `json:"urls"`
	Users int32 `json:"users"`
}

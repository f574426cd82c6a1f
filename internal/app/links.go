package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tempizhere/shortify/internal/middleware"
	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
)

// HandleCreateLink обрабатывает POST-запросы на "/api/id/"
func (a *App) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLinkRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.URL == nil {
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}

	userID, ok := middleware.GetUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	link, err := a.svc.Allocate(r.Context(), *req.URL, req.CustomID, userID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingField):
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	case errors.Is(err, service.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, msgInvalidShortID)
		return
	case errors.Is(err, service.ErrAlreadyTaken):
		writeError(w, http.StatusBadRequest, fmt.Sprintf(msgNameTaken, req.CustomID))
		return
	default:
		a.logger.Error("Failed to create link", zap.String("custom_id", req.CustomID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	a.writeJSONResponse(w, http.StatusCreated, models.CreateLinkResponse{
		URL:       link.Original,
		ShortLink: a.svc.ShortURL(link.Short),
	})
}

// HandleLookupLink обрабатывает GET-запросы на "/api/id/{short_id}/"
func (a *App) HandleLookupLink(w http.ResponseWriter, r *http.Request) {
	link, err := a.svc.Lookup(r.Context(), chi.URLParam(r, "short_id"))
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgIDNotFound)
		return
	}
	if err != nil {
		a.internalError(w, "Failed to look up link", err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.LookupResponse{URL: link.Original})
}

// HandleRedirect обрабатывает переход по короткой ссылке "/{short_url}"
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	short := chi.URLParam(r, "short_url")
	res, err := a.svc.Resolve(r.Context(), short)
	if err != nil {
		a.logger.Error("Failed to resolve link", zap.String("short", short), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch res.Outcome {
	case service.OutcomeRedirect:
		http.Redirect(w, r, res.Original, http.StatusFound)
	case service.OutcomeSuspended:
		http.Error(w, "Link is no longer available", http.StatusGone)
	default:
		http.Error(w, "Link not found", http.StatusNotFound)
	}
}

// HandleUserLinks обрабатывает GET-запросы на "/api/user/urls"
func (a *App) HandleUserLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	links, err := a.svc.ListByOwner(r.Context(), userID)
	if err != nil {
		a.internalError(w, "Failed to list user links", err)
		return
	}
	if len(links) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]models.UserLinkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, a.userLinkResponse(link))
	}
	a.writeJSONResponse(w, http.StatusOK, resp)
}

// HandleUpdateLink обрабатывает PATCH-запросы на "/api/user/urls/{id}"
func (a *App) HandleUpdateLink(w http.ResponseWriter, r *http.Request) {
	linkID, ok := linkIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgIDNotFound)
		return
	}
	userID, ok := middleware.GetUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	var req models.LinkSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	upd, err := settingsUpdate(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgBadDateFormat)
		return
	}

	link, err := a.svc.UpdateSettings(r.Context(), linkID, userID, upd)
	if err != nil {
		a.writeLinkError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, a.userLinkResponse(link))
}

// HandleDeleteLink обрабатывает DELETE-запросы на "/api/user/urls/{id}"
func (a *App) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	linkID, ok := linkIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgIDNotFound)
		return
	}
	userID, ok := middleware.GetUserID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := a.svc.Delete(r.Context(), linkID, userID); err != nil {
		a.writeLinkError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeLinkError переводит ошибки управления ссылкой в HTTP-статусы
func (a *App) writeLinkError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, msgIDNotFound)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, service.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, msgInvalidDate)
	default:
		a.internalError(w, "Failed to modify link", err)
	}
}

func (a *App) userLinkResponse(link models.Link) models.UserLinkResponse {
	return models.UserLinkResponse{
		ID:             link.ID,
		URL:            link.Original,
		ShortLink:      a.svc.ShortURL(link.Short),
		HitCount:       link.HitCount,
		Suspended:      link.Suspended,
		ExpirationDate: link.ExpirationDate,
		CreatedAt:      link.CreatedAt,
	}
}

func linkIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// settingsUpdate разбирает тело PATCH-запроса; пустая строка снимает срок действия
func settingsUpdate(req models.LinkSettingsRequest) (service.SettingsUpdate, error) {
	upd := service.SettingsUpdate{Suspended: req.Suspended}
	if req.ExpirationDate == nil {
		return upd, nil
	}
	if *req.ExpirationDate == "" {
		upd.ClearExpiration = true
		return upd, nil
	}
	expiration, err := service.ParseExpirationDate(*req.ExpirationDate)
	if err != nil {
		return service.SettingsUpdate{}, err
	}
	upd.ExpirationDate = &expiration
	return upd, nil
}

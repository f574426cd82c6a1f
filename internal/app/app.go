package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
)

// Сообщения об ошибках JSON API
const (
	msgBodyMissing      = "Request body is missing"
	msgInvalidJSON      = "Request body is not valid JSON"
	msgInvalidFieldType = "Invalid type for field %q"
	msgURLRequired      = `"url" is a required field!`
	msgInvalidShortID   = "Invalid short link name specified"
	msgNameTaken        = "The name %s is already taken!"
	msgIDNotFound       = "Specified id was not found"
	msgCreateFailed     = "Could not create link"
	msgForbidden        = "You do not have permission to modify this link"
	msgInvalidDate      = "Expiration date cannot be in the past"
	msgBadDateFormat    = "Invalid expiration date format"
	msgUnauthorized     = "Authentication required"
	msgInternalError    = "Internal server error"
	msgStoreNotReady    = "Database not configured"
	msgStoreUnavailable = "Database connection failed"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

// App содержит хендлеры и зависимости
type App struct {
	svc      *service.Service
	accounts *service.AccountService
	tokens   *service.TokenManager
	store    Pinger
	logger   *zap.Logger
}

// NewApp создаёт новое приложение. store может быть nil, тогда /ping отвечает 500.
func NewApp(svc *service.Service, accounts *service.AccountService, tokens *service.TokenManager, store Pinger, logger *zap.Logger) *App {
	return &App{
		svc:      svc,
		accounts: accounts,
		tokens:   tokens,
		store:    store,
		logger:   logger,
	}
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if a.store == nil {
		writeError(w, http.StatusInternalServerError, msgStoreNotReady)
		return
	}
	if err := a.store.PingContext(r.Context()); err != nil {
		a.logger.Error("Storage ping failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgStoreUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleStats обрабатывает GET-запросы на "/api/internal/stats"
func (a *App) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		a.logger.Error("Failed to get stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, stats)
}

// errBodyMissing тело пустое, null или пустой JSON-объект
var errBodyMissing = errors.New("request body is missing")

// bodyTypeError поле тела запроса имеет неверный JSON-тип
type bodyTypeError struct {
	field string
}

func (e *bodyTypeError) Error() string {
	return fmt.Sprintf(msgInvalidFieldType, e.field)
}

// decodeBody читает JSON-объект из тела запроса.
// Пустое тело, null и {} дают errBodyMissing, неверный тип поля даёт *bodyTypeError.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return errBodyMissing
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errBodyMissing
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	if len(fields) == 0 {
		return errBodyMissing
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &bodyTypeError{field: typeErr.Field}
		}
		return err
	}
	return nil
}

// writeBodyError отвечает 400 с причиной, по которой тело не разобрано
func writeBodyError(w http.ResponseWriter, err error) {
	var typeErr *bodyTypeError
	switch {
	case errors.Is(err, errBodyMissing):
		writeError(w, http.StatusBadRequest, msgBodyMissing)
	case errors.As(err, &typeErr):
		writeError(w, http.StatusBadRequest, typeErr.Error())
	default:
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
	}
}

// writeJSONResponse записывает JSON-ответ с указанным статусом
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Message: message})
}

// internalError логирует неожиданную ошибку и отвечает 500
func (a *App) internalError(w http.ResponseWriter, msg string, err error) {
	if isClientGone(err) {
		a.logger.Info("Request canceled by client", zap.Error(err))
	} else {
		a.logger.Error(msg, zap.Error(err))
	}
	writeError(w, http.StatusInternalServerError, msgInternalError)
}

// isClientGone сообщает, что клиент прервал запрос
func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}

package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
)

// SessionCookie имя куки с JWT
const SessionCookie = "jwt_token"

// contextKey определяет тип для ключей контекста
type contextKey string

const (
	userIDKey        contextKey = "userID"
	authenticatedKey contextKey = "authenticated"
)

// AuthMiddleware извлекает пользователя из куки или заголовка Authorization.
// Запросам без действующего токена выдаётся анонимный идентификатор и новая кука.
func AuthMiddleware(tokens *service.TokenManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if token := tokenFromRequest(r); token != "" {
				id, err := tokens.ParseJWT(token)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.String("uri", r.RequestURI), zap.Error(err))
				} else {
					userID = id
				}
			}

			authenticated := userID != ""
			if !authenticated {
				var err error
				userID, err = service.GenerateUserID()
				if err != nil {
					logger.Error("Failed to generate user ID", zap.Error(err))
					writeInternalError(w)
					return
				}
				token, err := tokens.GenerateJWT(userID)
				if err != nil {
					logger.Error("Failed to generate JWT", zap.Error(err))
					writeInternalError(w)
					return
				}
				SetSessionCookie(w, token, tokens.SessionTTL())
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, authenticatedKey, authenticated)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
}

// SetSessionCookie записывает куку с JWT
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(ttl),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет куку с JWT
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// GetUserID извлекает UserID из контекста запроса
func GetUserID(r *http.Request) (string, bool) {
	return UserIDFromContext(r.Context())
}

// UserIDFromContext извлекает UserID из контекста; используется и gRPC-сервером
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// IsAuthenticated сообщает, предъявил ли запрос действующий токен
func IsAuthenticated(r *http.Request) bool {
	return AuthenticatedFromContext(r.Context())
}

// AuthenticatedFromContext сообщает, что идентификатор получен из действующего токена
func AuthenticatedFromContext(ctx context.Context) bool {
	ok, _ := ctx.Value(authenticatedKey).(bool)
	return ok
}

// WithUserID кладёт UserID в контекст
func WithUserID(ctx context.Context, userID string, authenticated bool) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, authenticatedKey, authenticated)
}

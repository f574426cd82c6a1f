package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// TokenPurpose назначение токена; токен одного назначения не принимается для другого
type TokenPurpose string

const (
	PurposeSession TokenPurpose = "session"
	PurposeVerify  TokenPurpose = "verify"
	PurposeReset   TokenPurpose = "reset"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

// Claims полезная нагрузка JWT
type Claims struct {
	jwt.RegisteredClaims
	UserID  string       `json:"user_id"`
	Purpose TokenPurpose `json:"purpose"`

	// Fingerprint отпечаток состояния учётной записи, к которому привязан токен
	Fingerprint string `json:"fp,omitempty"`
}

// TokenManager выпускает и проверяет подписанные HMAC токены
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// NewTokenManager создаёт TokenManager; sessionTTL задаёт срок жизни сессии
func NewTokenManager(secret string, sessionTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// SessionTTL возвращает срок жизни сессионного токена
func (m *TokenManager) SessionTTL() time.Duration {
	return m.sessionTTL
}

func (m *TokenManager) ttl(purpose TokenPurpose) time.Duration {
	switch purpose {
	case PurposeVerify:
		return verifyTokenTTL
	case PurposeReset:
		return resetTokenTTL
	default:
		return m.sessionTTL
	}
}

// Generate выпускает токен для пользователя
func (m *TokenManager) Generate(userID string, purpose TokenPurpose) (string, error) {
	return m.GenerateBound(userID, purpose, "")
}

// GenerateBound выпускает токен, который принимается, только пока отпечаток учётной записи не изменился
func (m *TokenManager) GenerateBound(userID string, purpose TokenPurpose, fingerprint string) (string, error) {
	now := m.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl(purpose))),
		},
		UserID:      userID,
		Purpose:     purpose,
		Fingerprint: fingerprint,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse проверяет подпись, срок и назначение токена и возвращает UserID
func (m *TokenManager) Parse(tokenString string, purpose TokenPurpose) (string, error) {
	userID, _, err := m.ParseBound(tokenString, purpose)
	return userID, err
}

// ParseBound проверяет токен и возвращает UserID вместе с отпечатком
func (m *TokenManager) ParseBound(tokenString string, purpose TokenPurpose) (string, string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID == "" {
		return "", "", ErrInvalidToken
	}
	return claims.UserID, claims.Fingerprint, nil
}

// GenerateJWT выпускает сессионный токен
func (m *TokenManager) GenerateJWT(userID string) (string, error) {
	return m.Generate(userID, PurposeSession)
}

// ParseJWT проверяет сессионный токен
func (m *TokenManager) ParseJWT(tokenString string) (string, error) {
	return m.Parse(tokenString, PurposeSession)
}

// GenerateUserID генерирует идентификатор нового, в том числе анонимного, пользователя
func GenerateUserID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

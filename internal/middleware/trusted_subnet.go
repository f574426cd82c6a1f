// Package middleware содержит HTTP middleware для обработки запросов.
// Включает аутентификацию, логирование, метрики, сжатие ответов и проверку доверенных подсетей.
package middleware

import (
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"
)

// ErrSubnetNotConfigured доверенная подсеть не задана, доступ закрыт для всех
var ErrSubnetNotConfigured = errors.New("trusted subnet is not configured")

// TrustedSubnet проверяет принадлежность адреса подсети из конфигурации
type TrustedSubnet struct {
	network *net.IPNet
}

// ParseTrustedSubnet разбирает CIDR; пустая строка даёт подсеть, которая отклоняет все адреса
func ParseTrustedSubnet(cidr string) (*TrustedSubnet, error) {
	if cidr == "" {
		return &TrustedSubnet{}, nil
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	return &TrustedSubnet{network: network}, nil
}

// Check возвращает nil, если IP входит в подсеть
func (s *TrustedSubnet) Check(ip string) error {
	if s == nil || s.network == nil {
		return ErrSubnetNotConfigured
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return errors.New("invalid client IP address")
	}
	if !s.network.Contains(parsed) {
		return errors.New("client IP is not in trusted subnet")
	}
	return nil
}

// String возвращает подсеть в CIDR-нотации
func (s *TrustedSubnet) String() string {
	if s == nil || s.network == nil {
		return ""
	}
	return s.network.String()
}

// TrustedSubnetMiddleware пропускает только запросы, у которых X-Real-IP входит в доверенную подсеть
func TrustedSubnetMiddleware(subnet *TrustedSubnet, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := r.Header.Get("X-Real-IP")
			if err := subnet.Check(clientIP); err != nil {
				logger.Warn("Access denied",
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("client_ip", clientIP),
					zap.String("trusted_subnet", subnet.String()),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

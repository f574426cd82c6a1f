package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/tempizhere/shortify/internal/grpc/proto"
	"github.com/tempizhere/shortify/internal/metrics"
	"github.com/tempizhere/shortify/internal/middleware"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// publicMethods не требуют идентификации пользователя
var publicMethods = map[string]bool{
	proto.MethodGetLink:     true,
	proto.MethodResolveLink: true,
	proto.MethodPing:        true,
	proto.MethodGetStats:    true,
}

// AuthInterceptor создаёт интерцептор для аутентификации пользователей.
// Без действующего Bearer-токена выдаётся анонимный идентификатор, токен возвращается в заголовке ответа.
func AuthInterceptor(tokens *service.TokenManager, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		var userID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if authHeaders := md.Get("authorization"); len(authHeaders) > 0 &&
				strings.HasPrefix(authHeaders[0], "Bearer ") {
				var err error
				userID, err = tokens.ParseJWT(strings.TrimPrefix(authHeaders[0], "Bearer "))
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
				}
			}
		}
		if userID != "" {
			return handler(middleware.WithUserID(ctx, userID, true), req)
		}

		userID, err := service.GenerateUserID()
		if err != nil {
			logger.Error("Failed to generate user ID", zap.Error(err))
			return nil, status.Error(codes.Internal, "failed to generate user ID")
		}
		token, err := tokens.GenerateJWT(userID)
		if err != nil {
			logger.Error("Failed to generate JWT", zap.Error(err))
			return nil, status.Error(codes.Internal, "failed to generate JWT")
		}
		if err := grpc.SetHeader(ctx, metadata.Pairs("authorization", "Bearer "+token)); err != nil {
			logger.Error("Failed to set response header", zap.Error(err))
		}
		logger.Info("Generated new JWT for gRPC", zap.String("user_id", userID))

		return handler(middleware.WithUserID(ctx, userID, false), req)
	}
}

// TrustedSubnetInterceptor пропускает GetStats только из доверенной подсети
func TrustedSubnetInterceptor(subnet *middleware.TrustedSubnet, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if info.FullMethod != proto.MethodGetStats {
			return handler(ctx, req)
		}

		clientIP := peerIP(ctx)
		if err := subnet.Check(clientIP); err != nil {
			logger.Warn("Access denied from untrusted IP", zap.String("ip", clientIP), zap.Error(err))
			return nil, status.Error(codes.PermissionDenied, "access denied")
		}
		return handler(ctx, req)
	}
}

// peerIP возвращает IP клиента из информации о соединении
func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	return p.Addr.String()
}

// LoggingInterceptor создаёт интерцептор для логирования gRPC запросов и учёта их в метриках
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("client_ip", peerIP(ctx)),
			zap.String("status_code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			logger.Error("gRPC request", append(fields, zap.Error(err))...)
		} else {
			logger.Info("gRPC request", fields...)
		}
		return resp, err
	}
}

// Package grpc содержит gRPC сервер коротких ссылок и его интерцепторы
package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/tempizhere/shortify/internal/grpc/proto"
	"github.com/tempizhere/shortify/internal/middleware"
	"github.com/tempizhere/shortify/internal/models"
	"github.com/tempizhere/shortify/internal/repository"
	"github.com/tempizhere/shortify/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server реализует gRPC сервер для сервиса коротких ссылок
type Server struct {
	proto.UnimplementedLinkServiceServer
	svc    *service.Service
	store  Pinger
	logger *zap.Logger
}

// NewServer создаёт новый gRPC сервер. store может быть nil.
func NewServer(svc *service.Service, store Pinger, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// NewGRPCServer собирает grpc.Server с интерцепторами и зарегистрированным сервисом
func NewGRPCServer(srv *Server, tokens *service.TokenManager, subnet *middleware.TrustedSubnet, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		LoggingInterceptor(logger),
		TrustedSubnetInterceptor(subnet, logger),
		AuthInterceptor(tokens, logger),
	))
	proto.RegisterLinkServiceServer(s, srv)
	return s
}

// CreateLink создаёт короткую ссылку от имени текущего пользователя
func (s *Server) CreateLink(ctx context.Context, req *proto.CreateLinkRequest) (*proto.CreateLinkResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.svc.Allocate(ctx, req.URL, req.CustomID, userID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingField):
		return nil, status.Error(codes.InvalidArgument, `"url" is a required field!`)
	case errors.Is(err, service.ErrInvalidFormat):
		return nil, status.Error(codes.InvalidArgument, "Invalid short link name specified")
	case errors.Is(err, service.ErrAlreadyTaken):
		return nil, status.Errorf(codes.AlreadyExists, "The name %s is already taken!", req.CustomID)
	default:
		s.logger.Error("Failed to create link", zap.String("custom_id", req.CustomID), zap.Error(err))
		return nil, status.Error(codes.Internal, "Could not create link")
	}

	return &proto.CreateLinkResponse{
		URL:       link.Original,
		ShortLink: s.svc.ShortURL(link.Short),
	}, nil
}

// GetLink возвращает исходный URL без учёта перехода
func (s *Server) GetLink(ctx context.Context, req *proto.GetLinkRequest) (*proto.GetLinkResponse, error) {
	if req.ShortID == "" {
		return nil, status.Error(codes.InvalidArgument, "short ID is required")
	}
	link, err := s.svc.Lookup(ctx, req.ShortID)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.GetLinkResponse{URL: link.Original}, nil
}

// ResolveLink выполняет переход: учитывает его и возвращает адрес перенаправления
func (s *Server) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	if req.ShortID == "" {
		return nil, status.Error(codes.InvalidArgument, "short ID is required")
	}
	res, err := s.svc.Resolve(ctx, req.ShortID)
	if err != nil {
		return nil, s.mapError(err)
	}

	switch res.Outcome {
	case service.OutcomeRedirect:
		return &proto.ResolveLinkResponse{URL: res.Original}, nil
	case service.OutcomeSuspended:
		return nil, status.Error(codes.FailedPrecondition, "Link is no longer available")
	default:
		return nil, status.Error(codes.NotFound, "Specified id was not found")
	}
}

// ListUserLinks возвращает все ссылки пользователя
func (s *Server) ListUserLinks(ctx context.Context, _ *proto.ListUserLinksRequest) (*proto.ListUserLinksResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	links, err := s.svc.ListByOwner(ctx, userID)
	if err != nil {
		return nil, s.mapError(err)
	}

	resp := &proto.ListUserLinksResponse{Links: make([]*proto.Link, 0, len(links))}
	for _, link := range links {
		resp.Links = append(resp.Links, s.protoLink(link))
	}
	return resp, nil
}

// UpdateLinkSettings меняет настройки ссылки владельца
func (s *Server) UpdateLinkSettings(ctx context.Context, req *proto.UpdateLinkSettingsRequest) (*proto.UpdateLinkSettingsResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	upd := service.SettingsUpdate{Suspended: req.Suspended}
	if req.ExpirationDate != nil {
		if *req.ExpirationDate == "" {
			upd.ClearExpiration = true
		} else {
			expiration, err := service.ParseExpirationDate(*req.ExpirationDate)
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, "Invalid expiration date format")
			}
			upd.ExpirationDate = &expiration
		}
	}

	link, err := s.svc.UpdateSettings(ctx, req.ID, userID, upd)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.UpdateLinkSettingsResponse{Link: s.protoLink(link)}, nil
}

// DeleteLink удаляет ссылку владельца
func (s *Server) DeleteLink(ctx context.Context, req *proto.DeleteLinkRequest) (*proto.DeleteLinkResponse, error) {
	userID, err := getUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Delete(ctx, req.ID, userID); err != nil {
		return nil, s.mapError(err)
	}
	return &proto.DeleteLinkResponse{}, nil
}

// Ping проверяет состояние хранилища
func (s *Server) Ping(ctx context.Context, _ *proto.PingRequest) (*proto.PingResponse, error) {
	if s.store == nil {
		return &proto.PingResponse{StorageAvailable: false}, nil
	}
	err := s.store.PingContext(ctx)
	if err != nil {
		s.logger.Warn("Storage ping failed", zap.Error(err))
	}
	return &proto.PingResponse{StorageAvailable: err == nil}, nil
}

// GetStats возвращает статистику сервиса
func (s *Server) GetStats(ctx context.Context, _ *proto.GetStatsRequest) (*proto.GetStatsResponse, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		s.logger.Error("Failed to get stats", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to get statistics")
	}
	return &proto.GetStatsResponse{
		URLs:  int32(stats.URLs),
		Users: int32(stats.Users),
	}, nil
}

func (s *Server) protoLink(link models.Link) *proto.Link {
	l := &proto.Link{
		ID:        link.ID,
		URL:       link.Original,
		ShortLink: s.svc.ShortURL(link.Short),
		HitCount:  link.HitCount,
		Suspended: link.Suspended,
		CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339),
	}
	if link.ExpirationDate != nil {
		l.ExpirationDate = link.ExpirationDate.UTC().Format(time.RFC3339)
	}
	return l
}

// getUserIDFromContext извлекает UserID, положенный AuthInterceptor
func getUserIDFromContext(ctx context.Context) (string, error) {
	if userID, ok := middleware.UserIDFromContext(ctx); ok {
		return userID, nil
	}
	return "", status.Error(codes.Unauthenticated, "user not authenticated")
}

// mapError преобразует ошибки бизнес-логики в gRPC статусы
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, "Specified id was not found")
	case errors.Is(err, service.ErrForbidden):
		return status.Error(codes.PermissionDenied, "You do not have permission to modify this link")
	case errors.Is(err, service.ErrInvalidDate):
		return status.Error(codes.InvalidArgument, "Expiration date cannot be in the past")
	case errors.Is(err, service.ErrMissingField):
		return status.Error(codes.InvalidArgument, "required field is missing")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		s.logger.Error("Unexpected error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}

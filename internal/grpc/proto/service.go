package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName полное имя gRPC сервиса
const ServiceName = "shortify.v1.LinkService"

// Полные имена методов, используются интерцепторами
const (
	MethodCreateLink         = "/" + ServiceName + "/CreateLink"
	MethodGetLink            = "/" + ServiceName + "/GetLink"
	MethodResolveLink        = "/" + ServiceName + "/ResolveLink"
	MethodListUserLinks      = "/" + ServiceName + "/ListUserLinks"
	MethodUpdateLinkSettings = "/" + ServiceName + "/UpdateLinkSettings"
	MethodDeleteLink         = "/" + ServiceName + "/DeleteLink"
	MethodPing               = "/" + ServiceName + "/Ping"
	MethodGetStats           = "/" + ServiceName + "/GetStats"
)

// LinkServiceServer интерфейс gRPC сервиса коротких ссылок
type LinkServiceServer interface {
	CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error)
	GetLink(ctx context.Context, req *GetLinkRequest) (*GetLinkResponse, error)
	ResolveLink(ctx context.Context, req *ResolveLinkRequest) (*ResolveLinkResponse, error)
	ListUserLinks(ctx context.Context, req *ListUserLinksRequest) (*ListUserLinksResponse, error)
	UpdateLinkSettings(ctx context.Context, req *UpdateLinkSettingsRequest) (*UpdateLinkSettingsResponse, error)
	DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*DeleteLinkResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
	GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error)
}

// UnimplementedLinkServiceServer отвечает codes.Unimplemented на все методы
type UnimplementedLinkServiceServer struct{}

func (UnimplementedLinkServiceServer) CreateLink(context.Context, *CreateLinkRequest) (*CreateLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLink not implemented")
}

func (UnimplementedLinkServiceServer) GetLink(context.Context, *GetLinkRequest) (*GetLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLink not implemented")
}

func (UnimplementedLinkServiceServer) ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveLink not implemented")
}

func (UnimplementedLinkServiceServer) ListUserLinks(context.Context, *ListUserLinksRequest) (*ListUserLinksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListUserLinks not implemented")
}

func (UnimplementedLinkServiceServer) UpdateLinkSettings(context.Context, *UpdateLinkSettingsRequest) (*UpdateLinkSettingsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateLinkSettings not implemented")
}

func (UnimplementedLinkServiceServer) DeleteLink(context.Context, *DeleteLinkRequest) (*DeleteLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteLink not implemented")
}

func (UnimplementedLinkServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

func (UnimplementedLinkServiceServer) GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}

// unaryHandler связывает метод интерфейса с обработчиком grpc.MethodDesc
func unaryHandler[Req, Resp any](fullMethod string, call func(LinkServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LinkServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(LinkServiceServer), ctx, req.(*Req))
		})
	}
}

// LinkServiceDesc описание сервиса для grpc.Server
var LinkServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateLink", Handler: unaryHandler(MethodCreateLink, LinkServiceServer.CreateLink)},
		{MethodName: "GetLink", Handler: unaryHandler(MethodGetLink, LinkServiceServer.GetLink)},
		{MethodName: "ResolveLink", Handler: unaryHandler(MethodResolveLink, LinkServiceServer.ResolveLink)},
		{MethodName: "ListUserLinks", Handler: unaryHandler(MethodListUserLinks, LinkServiceServer.ListUserLinks)},
		{MethodName: "UpdateLinkSettings", Handler: unaryHandler(MethodUpdateLinkSettings, LinkServiceServer.UpdateLinkSettings)},
		{MethodName: "DeleteLink", Handler: unaryHandler(MethodDeleteLink, LinkServiceServer.DeleteLink)},
		{MethodName: "Ping", Handler: unaryHandler(MethodPing, LinkServiceServer.Ping)},
		{MethodName: "GetStats", Handler: unaryHandler(MethodGetStats, LinkServiceServer.GetStats)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortify/v1/link_service",
}

// RegisterLinkServiceServer регистрирует реализацию сервиса в gRPC сервере
func RegisterLinkServiceServer(s grpc.ServiceRegistrar, srv LinkServiceServer) {
	s.RegisterService(&LinkServiceDesc, srv)
}

// LinkServiceClient клиент сервиса; все вызовы идут с JSON кодеком
type LinkServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkServiceClient создаёт клиента поверх соединения
func NewLinkServiceClient(cc grpc.ClientConnInterface) *LinkServiceClient {
	return &LinkServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLink создаёт короткую ссылку
func (c *LinkServiceClient) CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*CreateLinkResponse, error) {
	return invoke[CreateLinkResponse](ctx, c.cc, MethodCreateLink, in, opts)
}

// GetLink возвращает исходный URL без учёта перехода
func (c *LinkServiceClient) GetLink(ctx context.Context, in *GetLinkRequest, opts ...grpc.CallOption) (*GetLinkResponse, error) {
	return invoke[GetLinkResponse](ctx, c.cc, MethodGetLink, in, opts)
}

// ResolveLink выполняет переход по короткой ссылке
func (c *LinkServiceClient) ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*ResolveLinkResponse, error) {
	return invoke[ResolveLinkResponse](ctx, c.cc, MethodResolveLink, in, opts)
}

// ListUserLinks возвращает ссылки текущего пользователя
func (c *LinkServiceClient) ListUserLinks(ctx context.Context, in *ListUserLinksRequest, opts ...grpc.CallOption) (*ListUserLinksResponse, error) {
	return invoke[ListUserLinksResponse](ctx, c.cc, MethodListUserLinks, in, opts)
}

// UpdateLinkSettings меняет настройки ссылки
func (c *LinkServiceClient) UpdateLinkSettings(ctx context.Context, in *UpdateLinkSettingsRequest, opts ...grpc.CallOption) (*UpdateLinkSettingsResponse, error) {
	return invoke[UpdateLinkSettingsResponse](ctx, c.cc, MethodUpdateLinkSettings, in, opts)
}

// DeleteLink удаляет ссылку
func (c *LinkServiceClient) DeleteLink(ctx context.Context, in *DeleteLinkRequest, opts ...grpc.CallOption) (*DeleteLinkResponse, error) {
	return invoke[DeleteLinkResponse](ctx, c.cc, MethodDeleteLink, in, opts)
}

// Ping проверяет хранилище
func (c *LinkServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

// GetStats возвращает статистику сервиса
func (c *LinkServiceClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return invoke[GetStatsResponse](ctx, c.cc, MethodGetStats, in, opts)
}

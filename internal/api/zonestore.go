// Package api describes the zoneshare.v1.ZoneStore gRPC service. Every method
// is unary and carries google.protobuf.Struct payloads in both directions, so
// the service needs no generated code.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "zoneshare.v1.ZoneStore"

// Method names.
const (
	Register     = "Register"
	Login        = "Login"
	WhoAmI       = "WhoAmI"
	DisplayName  = "DisplayName"
	CreateZone   = "CreateZone"
	GetZone      = "GetZone"
	ListZones    = "ListZones"
	SaveRecord   = "SaveRecord"
	GetRecord    = "GetRecord"
	FetchChanges = "FetchChanges"
	SaveShare    = "SaveShare"
	GetShare     = "GetShare"
	AcceptShares = "AcceptShares"
)

// FullMethod returns "/zoneshare.v1.ZoneStore/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// Public reports whether a method may be called without an access token.
func Public(fullMethod string) bool {
	return fullMethod == FullMethod(Register) || fullMethod == FullMethod(Login)
}

// ZoneStoreServer is the server API for the ZoneStore service.
type ZoneStoreServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DisplayName(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateZone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetZone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListZones(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FetchChanges(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveShare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetShare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcceptShares(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverCall func(ZoneStoreServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call serverCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ZoneStoreServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ZoneStoreServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ZoneStoreServiceDesc is the grpc.ServiceDesc for the ZoneStore service.
var ZoneStoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ZoneStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(Register, ZoneStoreServer.Register),
		unary(Login, ZoneStoreServer.Login),
		unary(WhoAmI, ZoneStoreServer.WhoAmI),
		unary(DisplayName, ZoneStoreServer.DisplayName),
		unary(CreateZone, ZoneStoreServer.CreateZone),
		unary(GetZone, ZoneStoreServer.GetZone),
		unary(ListZones, ZoneStoreServer.ListZones),
		unary(SaveRecord, ZoneStoreServer.SaveRecord),
		unary(GetRecord, ZoneStoreServer.GetRecord),
		unary(FetchChanges, ZoneStoreServer.FetchChanges),
		unary(SaveShare, ZoneStoreServer.SaveShare),
		unary(GetShare, ZoneStoreServer.GetShare),
		unary(AcceptShares, ZoneStoreServer.AcceptShares),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zoneshare/v1/zonestore.proto",
}

// RegisterZoneStoreServer registers srv with s.
func RegisterZoneStoreServer(s grpc.ServiceRegistrar, srv ZoneStoreServer) {
	s.RegisterService(&ZoneStoreServiceDesc, srv)
}

// ZoneStoreClient invokes ZoneStore methods over a connection.
type ZoneStoreClient struct {
	cc grpc.ClientConnInterface
}

// NewZoneStoreClient wraps cc.
func NewZoneStoreClient(cc grpc.ClientConnInterface) *ZoneStoreClient {
	return &ZoneStoreClient{cc: cc}
}

// Call invokes method with in and returns the response payload.
func (c *ZoneStoreClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

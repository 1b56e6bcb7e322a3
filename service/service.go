// Package service exposes an fscache.Store as the rawr.Cache gRPC service.
// It registers through a hand-written [grpc.ServiceDesc], so no protobuf
// code generation is required; messages are plain Go structs carried by a
// JSON codec that wraps the default proto codec. Importing this package
// installs the codec.
//
// Every store operation keeps its boolean contract on the wire: an invalid
// key or a failed write is a Result with OK=false, not an RPC error.
package service

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "rawr.Cache"

// FullMethod returns the "/service/method" path for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// Handler is the interface a rawr.Cache implementation must satisfy.
type Handler interface {
	Set(ctx context.Context, req *SetRequest) (*Result, error)
	Get(ctx context.Context, req *GetRequest) (*GetResponse, error)
	Has(ctx context.Context, req *KeyRequest) (*Result, error)
	Delete(ctx context.Context, req *KeyRequest) (*Result, error)
	Touch(ctx context.Context, req *TouchRequest) (*Result, error)
	Clear(ctx context.Context, req *Empty) (*Result, error)
	DeleteByPattern(ctx context.Context, req *PatternRequest) (*Result, error)
	GetMultiple(ctx context.Context, req *KeysRequest) (*ValuesResponse, error)
	SetMultiple(ctx context.Context, req *SetMultipleRequest) (*Result, error)
	DeleteMultiple(ctx context.Context, req *KeysRequest) (*Result, error)
	All(ctx context.Context, req *Empty) (*AllResponse, error)
	Ping(ctx context.Context, req *PingRequest) (*PingResponse, error)
	Watch(req *WatchRequest, stream WatchStream) error
}

// ServiceDesc is the grpc.ServiceDesc for the rawr.Cache service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		unary("Set", Handler.Set),
		unary("Get", Handler.Get),
		unary("Has", Handler.Has),
		unary("Delete", Handler.Delete),
		unary("Touch", Handler.Touch),
		unary("Clear", Handler.Clear),
		unary("DeleteByPattern", Handler.DeleteByPattern),
		unary("GetMultiple", Handler.GetMultiple),
		unary("SetMultiple", Handler.SetMultiple),
		unary("DeleteMultiple", Handler.DeleteMultiple),
		unary("All", Handler.All),
		unary("Ping", Handler.Ping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "rawr/cache.proto",
}

// Register registers a rawr.Cache implementation on the given gRPC server.
func Register(s *grpc.Server, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// unary builds the method descriptor for one Handler method, decoding the
// request and routing it through the server's interceptor chain.
func unary[Req, Resp any](method string, call func(Handler, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(method)
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			h := srv.(Handler)
			if interceptor == nil {
				return call(h, ctx, req)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, r any) (any, error) {
				return call(h, ctx, r.(*Req))
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

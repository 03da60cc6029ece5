package navsyncv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	FundService_SyncFunds_FullMethodName  = "/navsync.v1.FundService/SyncFunds"
	FundService_SyncFund_FullMethodName   = "/navsync.v1.FundService/SyncFund"
	FundService_ListFunds_FullMethodName  = "/navsync.v1.FundService/ListFunds"
	FundService_GetFund_FullMethodName    = "/navsync.v1.FundService/GetFund"
	FundService_CreateFund_FullMethodName = "/navsync.v1.FundService/CreateFund"
)

// FundServiceServer is the server API for FundService
type FundServiceServer interface {
	SyncFunds(context.Context, *SyncFundsRequest) (*SyncResponse, error)
	SyncFund(context.Context, *SyncFundRequest) (*SyncResponse, error)
	ListFunds(context.Context, *ListFundsRequest) (*ListFundsResponse, error)
	GetFund(context.Context, *GetFundRequest) (*GetFundResponse, error)
	CreateFund(context.Context, *CreateFundRequest) (*CreateFundResponse, error)
	mustEmbedUnimplementedFundServiceServer()
}

// UnimplementedFundServiceServer must be embedded to have forward compatible implementations
type UnimplementedFundServiceServer struct{}

func (UnimplementedFundServiceServer) SyncFunds(context.Context, *SyncFundsRequest) (*SyncResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SyncFunds not implemented")
}
func (UnimplementedFundServiceServer) SyncFund(context.Context, *SyncFundRequest) (*SyncResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SyncFund not implemented")
}
func (UnimplementedFundServiceServer) ListFunds(context.Context, *ListFundsRequest) (*ListFundsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListFunds not implemented")
}
func (UnimplementedFundServiceServer) GetFund(context.Context, *GetFundRequest) (*GetFundResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetFund not implemented")
}
func (UnimplementedFundServiceServer) CreateFund(context.Context, *CreateFundRequest) (*CreateFundResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateFund not implemented")
}
func (UnimplementedFundServiceServer) mustEmbedUnimplementedFundServiceServer() {}

// RegisterFundServiceServer registers srv on s
func RegisterFundServiceServer(s grpc.ServiceRegistrar, srv FundServiceServer) {
	s.RegisterService(&FundService_ServiceDesc, srv)
}

// unaryHandler adapts one typed method to the grpc.MethodHandler shape
func unaryHandler[Req any, Resp any](fullMethod string, call func(FundServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FundServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FundServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FundService_ServiceDesc is the grpc.ServiceDesc for FundService
var FundService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "navsync.v1.FundService",
	HandlerType: (*FundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SyncFunds",
			Handler:    unaryHandler(FundService_SyncFunds_FullMethodName, FundServiceServer.SyncFunds),
		},
		{
			MethodName: "SyncFund",
			Handler:    unaryHandler(FundService_SyncFund_FullMethodName, FundServiceServer.SyncFund),
		},
		{
			MethodName: "ListFunds",
			Handler:    unaryHandler(FundService_ListFunds_FullMethodName, FundServiceServer.ListFunds),
		},
		{
			MethodName: "GetFund",
			Handler:    unaryHandler(FundService_GetFund_FullMethodName, FundServiceServer.GetFund),
		},
		{
			MethodName: "CreateFund",
			Handler:    unaryHandler(FundService_CreateFund_FullMethodName, FundServiceServer.CreateFund),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "navsync/v1/fund_service",
}

package navsyncv1

import (
	"context"

	"google.golang.org/grpc"
)

// FundServiceClient is the client API for FundService
type FundServiceClient interface {
	SyncFunds(ctx context.Context, in *SyncFundsRequest, opts ...grpc.CallOption) (*SyncResponse, error)
	SyncFund(ctx context.Context, in *SyncFundRequest, opts ...grpc.CallOption) (*SyncResponse, error)
	ListFunds(ctx context.Context, in *ListFundsRequest, opts ...grpc.CallOption) (*ListFundsResponse, error)
	GetFund(ctx context.Context, in *GetFundRequest, opts ...grpc.CallOption) (*GetFundResponse, error)
	CreateFund(ctx context.Context, in *CreateFundRequest, opts ...grpc.CallOption) (*CreateFundResponse, error)
}

type fundServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewFundServiceClient returns a client whose calls use the json codec
func NewFundServiceClient(cc grpc.ClientConnInterface) FundServiceClient {
	return &fundServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fundServiceClient) SyncFunds(ctx context.Context, in *SyncFundsRequest, opts ...grpc.CallOption) (*SyncResponse, error) {
	return invoke[SyncResponse](ctx, c.cc, FundService_SyncFunds_FullMethodName, in, opts)
}

func (c *fundServiceClient) SyncFund(ctx context.Context, in *SyncFundRequest, opts ...grpc.CallOption) (*SyncResponse, error) {
	return invoke[SyncResponse](ctx, c.cc, FundService_SyncFund_FullMethodName, in, opts)
}

func (c *fundServiceClient) ListFunds(ctx context.Context, in *ListFundsRequest, opts ...grpc.CallOption) (*ListFundsResponse, error) {
	return invoke[ListFundsResponse](ctx, c.cc, FundService_ListFunds_FullMethodName, in, opts)
}

func (c *fundServiceClient) GetFund(ctx context.Context, in *GetFundRequest, opts ...grpc.CallOption) (*GetFundResponse, error) {
	return invoke[GetFundResponse](ctx, c.cc, FundService_GetFund_FullMethodName, in, opts)
}

func (c *fundServiceClient) CreateFund(ctx context.Context, in *CreateFundRequest, opts ...grpc.CallOption) (*CreateFundResponse, error) {
	return invoke[CreateFundResponse](ctx, c.cc, FundService_CreateFund_FullMethodName, in, opts)
}

package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryClient calls the query service.
type QueryClient struct {
	cc grpc.ClientConnInterface
}

// NewQueryClient wraps an existing connection.
func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

// Dial opens a plaintext connection to a node's gRPC address.
func Dial(address string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	return grpc.NewClient(address, opts...)
}

// Call invokes method with fields as the request struct.
func (c *QueryClient) Call(ctx context.Context, method string, fields map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QueryClient) GetServerInfo(ctx context.Context) (*structpb.Struct, error) {
	return c.Call(ctx, "GetServerInfo", nil)
}

func (c *QueryClient) GetListing(ctx context.Context, assetID uint64) (*structpb.Struct, error) {
	return c.Call(ctx, "GetListing", map[string]interface{}{"asset_id": assetID})
}

func (c *QueryClient) GetOffer(ctx context.Context, assetID, offerID uint64) (*structpb.Struct, error) {
	return c.Call(ctx, "GetOffer", map[string]interface{}{"asset_id": assetID, "offer_id": offerID})
}

func (c *QueryClient) PendingYield(ctx context.Context, assetID uint64) (*structpb.Struct, error) {
	return c.Call(ctx, "PendingYield", map[string]interface{}{"asset_id": assetID})
}

func (c *QueryClient) GetBalance(ctx context.Context, acct string) (*structpb.Struct, error) {
	return c.Call(ctx, "GetBalance", map[string]interface{}{"account": acct})
}

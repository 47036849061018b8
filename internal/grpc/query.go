package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
)

// ServiceName is the fully qualified name of the query service.
const ServiceName = "propledger.v1.Query"

// QueryServer is the server side of the query service. Requests and
// responses are google.protobuf.Struct messages carrying the same fields as
// the JSON-RPC methods of the same name.
type QueryServer interface {
	GetServerInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMarketInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetListing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOffer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PendingYield(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAssetInfo(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type queryCall func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call queryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(QueryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(QueryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var queryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetServerInfo", QueryServer.GetServerInfo),
		unaryMethod("GetMarketInfo", QueryServer.GetMarketInfo),
		unaryMethod("GetListing", QueryServer.GetListing),
		unaryMethod("GetOffer", QueryServer.GetOffer),
		unaryMethod("GetOffers", QueryServer.GetOffers),
		unaryMethod("PendingYield", QueryServer.PendingYield),
		unaryMethod("GetBalance", QueryServer.GetBalance),
		unaryMethod("GetAssetInfo", QueryServer.GetAssetInfo),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "propledger/v1/query.proto",
}

// RegisterQueryServer registers srv on s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&queryServiceDesc, srv)
}

// QueryService implements QueryServer over the ledger service.
type QueryService struct {
	ledger LedgerService
}

// NewQueryService creates the query handlers.
func NewQueryService(ledger LedgerService) *QueryService {
	return &QueryService{ledger: ledger}
}

func (q *QueryService) GetServerInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	info, err := q.ledger.ServerInfo()
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(map[string]interface{}{"info": info})
}

func (q *QueryService) GetMarketInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	info, err := q.ledger.MarketInfo()
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(info)
}

func (q *QueryService) GetListing(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := uintField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	listing, err := q.ledger.Listing(assetID)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(map[string]interface{}{"listing": listing})
}

func (q *QueryService) GetOffer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := uintField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	offerID, err := uintField(req, "offer_id")
	if err != nil {
		return nil, err
	}
	offer, err := q.ledger.Offer(assetID, offerID)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(map[string]interface{}{"offer": offer})
}

func (q *QueryService) GetOffers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := uintField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	activeOnly := req.GetFields()["active_only"].GetBoolValue()
	book, err := q.ledger.Offers(assetID, activeOnly)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(book)
}

func (q *QueryService) PendingYield(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := uintField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	pending, err := q.ledger.PendingYield(assetID)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(pending)
}

func (q *QueryService) GetBalance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	acct, err := accountField(req, "account")
	if err != nil {
		return nil, err
	}
	balance, err := q.ledger.Balance(acct)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(balance)
}

func (q *QueryService) GetAssetInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	assetID, err := uintField(req, "asset_id")
	if err != nil {
		return nil, err
	}
	info, err := q.ledger.AssetInfo(assetID)
	if err != nil {
		return nil, statusError(err)
	}
	return toStruct(info)
}

// statusError maps ledger errors to gRPC status codes.
func statusError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return status.Error(codes.Unavailable, err.Error())
	case service.IsNotFound(err), tx.ResultOf(err) == tx.TecNOT_REGISTERED:
		return status.Error(codes.NotFound, err.Error())
	case tx.ResultOf(err) == tx.TefINTERNAL:
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
}

// toStruct converts v to a Struct through its JSON form, so gRPC and
// JSON-RPC clients see the same field names and encodings.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// uintField reads a non-negative integer given as a number or a decimal string.
func uintField(req *structpb.Struct, name string) (uint64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %s", name)
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n < 0 || n != math.Trunc(n) || n > 1<<53 {
			break
		}
		return uint64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseUint(kind.StringValue, 10, 64)
		if err != nil {
			break
		}
		return n, nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "invalid field %s", name)
}

func accountField(req *structpb.Struct, name string) (account.ID, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return account.Zero, status.Errorf(codes.InvalidArgument, "missing field %s", name)
	}
	acct, err := account.Parse(v.GetStringValue())
	if err != nil {
		return account.Zero, status.Errorf(codes.InvalidArgument, "invalid field %s: %v", name, err)
	}
	return acct, nil
}

package grpc

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/entry"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
)

// LedgerService is the part of *service.Service the query API reads.
type LedgerService interface {
	ServerInfo() (*service.ServerInfo, error)
	MarketInfo() (*service.MarketInfo, error)
	Listing(assetID uint64) (*entry.Listing, error)
	Offer(assetID, offerID uint64) (*entry.Offer, error)
	Offers(assetID uint64, activeOnly bool) (*service.OfferBook, error)
	PendingYield(assetID uint64) (*service.PendingYield, error)
	Balance(acct account.ID) (*service.AccountBalance, error)
	AssetInfo(assetID uint64) (*service.AssetInfo, error)
}

// CallObserver is told the outcome of every unary call.
type CallObserver interface {
	ObserveCall(method, code string, elapsed time.Duration)
}

// ErrServerRunning is returned when Serve is called twice.
var ErrServerRunning = errors.New("grpc server is already running")

// Server represents the gRPC server for ledger queries.
type Server struct {
	mu sync.RWMutex

	grpcServer *grpc.Server
	config     *ServerConfig
	listener   net.Listener
	running    bool
}

// NewServer creates a gRPC server with the Query service registered.
// observer may be nil.
func NewServer(cfg *ServerConfig, ledger LedgerService, observer CallObserver) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, errors.New("grpc: ledger service is required")
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.ChainUnaryInterceptor(
			UnaryServerInterceptor(observer),
			timeoutInterceptor(cfg.RequestTimeout),
		),
	}
	grpcServer := grpc.NewServer(opts...)
	RegisterQueryServer(grpcServer, NewQueryService(ledger))

	return &Server{
		grpcServer: grpcServer,
		config:     cfg,
	}, nil
}

// ListenAndServe listens on the configured address and serves until Stop.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener. It blocks until Stop is called;
// a stopped server returns nil.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		listener.Close()
		return ErrServerRunning
	}
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	log.Printf("grpc: serving %s on %s", ServiceName, listener.Addr())
	err := s.grpcServer.Serve(listener)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Stop gracefully stops the server, waiting for in-flight calls. A server
// stopped before Serve returns from Serve at once.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on, or "" before Serve.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// UnaryServerInterceptor reports each call's method, status code and latency.
func UnaryServerInterceptor(observer CallObserver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if observer != nil {
			observer.ObserveCall(info.FullMethod, status.Code(err).String(), time.Since(start))
		}
		return resp, err
	}
}

func timeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if timeout <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return handler(ctx, req)
	}
}

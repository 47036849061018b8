// Package node runs a propledgerd process: the ledger service with its
// JSON-RPC, WebSocket, metrics and gRPC listeners.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goPropLedger/internal/config"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/di"
	grpcserver "github.com/LeJamon/goPropLedger/internal/grpc"
	"github.com/LeJamon/goPropLedger/internal/metrics"
	"github.com/LeJamon/goPropLedger/internal/rpc"
)

// Node owns the service container and the network listeners.
type Node struct {
	config    *config.Config
	container *di.Container

	ledger  *service.Service
	metrics *metrics.Metrics
	grpc    *grpcserver.Server
	http    *http.Server

	mu           sync.Mutex
	httpListener net.Listener
	grpcListener net.Listener
}

// Option configures a Node.
type Option func(*options)

type options struct {
	clock tx.Clock
}

// WithClock replaces the system clock.
func WithClock(clock tx.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New builds every service named by cfg. Nothing listens until Listen or Run.
func New(cfg *config.Config, opts ...Option) (*Node, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	container := di.New()
	provider := di.NewProvider(container, cfg)
	provider.Clock = o.clock
	if err := provider.RegisterAll(); err != nil {
		return nil, err
	}

	n, err := build(cfg, container)
	if err != nil {
		if cerr := container.Close(); cerr != nil {
			log.Printf("node: cleanup after failed start: %v", cerr)
		}
		return nil, err
	}
	if cfg.Server.Standalone {
		log.Printf("node: WARNING standalone mode accepts unsigned transactions for any account; set server.standalone = false outside local development")
	}
	return n, nil
}

func build(cfg *config.Config, c *di.Container) (*Node, error) {
	ledger, err := di.Resolve[*service.Service](c, di.ServiceLedger)
	if err != nil {
		return nil, err
	}
	m, err := di.Resolve[*metrics.Metrics](c, di.ServiceMetrics)
	if err != nil {
		return nil, err
	}
	rpcServer, err := di.Resolve[*rpc.Server](c, di.ServiceRPCServer)
	if err != nil {
		return nil, err
	}
	wsServer, err := di.Resolve[*rpc.WebSocketServer](c, di.ServiceWebSocket)
	if err != nil {
		return nil, err
	}
	grpcSrv, err := di.Resolve[*grpcserver.Server](c, di.ServiceGRPCServer)
	if err != nil {
		return nil, err
	}

	n := &Node{
		config:    cfg,
		container: c,
		ledger:    ledger,
		metrics:   m,
		grpc:      grpcSrv,
	}

	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.Handle("/ws", wsServer)
	mux.HandleFunc("/health", n.handleHealth)
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}
	n.http = &http.Server{
		Handler:     mux,
		ReadTimeout: cfg.Server.RequestTimeout,
	}
	return n, nil
}

// Ledger returns the ledger service.
func (n *Node) Ledger() *service.Service {
	return n.ledger
}

// Listen binds the configured addresses. Run calls it when needed.
func (n *Node) Listen() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.httpListener != nil {
		return nil
	}

	httpLis, err := net.Listen("tcp", n.config.Server.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen http: %w", err)
	}
	if n.grpc != nil {
		grpcLis, err := net.Listen("tcp", n.config.Server.GRPCAddress)
		if err != nil {
			httpLis.Close()
			return fmt.Errorf("listen grpc: %w", err)
		}
		n.grpcListener = grpcLis
	}
	n.httpListener = httpLis
	return nil
}

// HTTPAddr returns the bound JSON-RPC address, or "" before Listen.
func (n *Node) HTTPAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.httpListener == nil {
		return ""
	}
	return n.httpListener.Addr().String()
}

// GRPCAddr returns the bound gRPC address, or "" when gRPC is off.
func (n *Node) GRPCAddr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.grpcListener == nil {
		return ""
	}
	return n.grpcListener.Addr().String()
}

// Run serves until ctx is cancelled or a listener fails, then shuts the
// servers down and closes the stores.
func (n *Node) Run(ctx context.Context) error {
	if err := n.Listen(); err != nil {
		n.close()
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("node: json-rpc and websocket on %s", n.httpListener.Addr())
		if err := n.http.Serve(n.httpListener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if n.grpc != nil {
		g.Go(func() error {
			if err := n.grpc.Serve(n.grpcListener); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		return n.shutdown()
	})

	err := g.Wait()
	n.close()
	return err
}

func (n *Node) shutdown() error {
	log.Printf("node: shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), n.config.Server.ShutdownTimeout)
	defer cancel()

	if n.grpc != nil {
		n.grpc.Stop()
	}
	if err := n.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the stores. Run closes the node itself; call Close only
// when Run is never reached.
func (n *Node) Close() error {
	return n.container.Close()
}

func (n *Node) close() {
	if err := n.Close(); err != nil {
		log.Printf("node: close: %v", err)
	}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	TxCount uint64 `json:"tx_count,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (n *Node) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Service: "propledgerd"}
	code := http.StatusOK

	info, err := n.ledger.ServerInfo()
	switch {
	case err != nil:
		resp.Status = "unavailable"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	case info.Header != nil:
		resp.TxCount = info.Header.TxCount
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

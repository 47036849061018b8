package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goPropLedger/internal/config"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	grpcserver "github.com/LeJamon/goPropLedger/internal/grpc"
	"github.com/LeJamon/goPropLedger/internal/metrics"
	"github.com/LeJamon/goPropLedger/internal/rpc"
	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
	"github.com/LeJamon/goPropLedger/internal/storage/kvdb"
	"github.com/LeJamon/goPropLedger/internal/storage/relationaldb"
	_ "github.com/LeJamon/goPropLedger/internal/storage/relationaldb/postgres"
	_ "github.com/LeJamon/goPropLedger/internal/storage/relationaldb/sqlite"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config

	// Clock overrides the system clock, for tests
	Clock tx.Clock
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	p.container.Register(ServiceConfig, p.config)

	p.registerStorageBuilders()
	p.registerLedgerBuilders()
	p.registerAPIBuilders()
	return nil
}

// registerStorageBuilders registers the ledger store and the event journal.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceLedgerStore, func(c *Container) (interface{}, error) {
		nodeDB := p.config.NodeDB
		if !nodeDB.IsPersistent() {
			return view.NewMemory(), nil
		}
		if err := ensureParentDir(nodeDB.Path); err != nil {
			return nil, err
		}
		db, err := kvdb.Open(nodeDB.Type, nodeDB.Path)
		if err != nil {
			return nil, err
		}
		c.OnClose(ServiceLedgerStore, db.Close)
		return view.NewStore(db, nodeDB.CacheSize)
	})

	p.container.RegisterBuilder(ServiceJournal, func(c *Container) (interface{}, error) {
		if !p.config.Journal.Enabled {
			return nil, nil
		}
		relCfg, err := p.config.Journal.Relational()
		if err != nil {
			return nil, err
		}
		if relCfg.Driver == "sqlite" {
			if err := ensureParentDir(relCfg.Database); err != nil {
				return nil, err
			}
		}
		journal, err := relationaldb.Open(context.Background(), relCfg)
		if err != nil {
			return nil, err
		}
		c.OnClose(ServiceJournal, func() error { return journal.Close(context.Background()) })
		return journal, nil
	})
}

// registerLedgerBuilders registers the ledger service and its observers.
func (p *Provider) registerLedgerBuilders() {
	p.container.RegisterBuilder(ServiceLedger, func(c *Container) (interface{}, error) {
		store, err := Resolve[view.Committer](c, ServiceLedgerStore)
		if err != nil {
			return nil, err
		}
		gen, err := p.config.Genesis.Genesis()
		if err != nil {
			return nil, err
		}

		svc, err := service.New(service.Config{
			Standalone:    p.config.Server.Standalone,
			Genesis:       gen,
			MaxBatchClaim: p.config.Market.MaxBatchClaim,
			Store:         store,
			Clock:         p.Clock,
		})
		if err != nil {
			return nil, err
		}
		if err := svc.Start(); err != nil {
			return nil, err
		}

		journal, err := Resolve[*relationaldb.Manager](c, ServiceJournal)
		if err != nil {
			return nil, err
		}
		if journal != nil {
			svc.AttachJournal(journal)
		}
		return svc, nil
	})

	p.container.RegisterBuilder(ServiceMetrics, func(c *Container) (interface{}, error) {
		if !p.config.Server.Metrics {
			return nil, nil
		}
		svc, err := Resolve[*service.Service](c, ServiceLedger)
		if err != nil {
			return nil, err
		}
		m := metrics.New()
		svc.Observe(m)
		svc.Subscribe(m)
		if err := m.RegisterLedgerGauges(svc); err != nil {
			return nil, err
		}
		return m, nil
	})
}

// registerAPIBuilders registers the JSON-RPC, WebSocket and gRPC servers.
func (p *Provider) registerAPIBuilders() {
	p.container.RegisterBuilder(ServiceRPCServer, func(c *Container) (interface{}, error) {
		svc, err := Resolve[*service.Service](c, ServiceLedger)
		if err != nil {
			return nil, err
		}
		rpc_types.Services = &rpc_types.ServiceContainer{Ledger: svc}
		return rpc.NewServer(p.config.Server.RequestTimeout), nil
	})

	p.container.RegisterBuilder(ServiceWebSocket, func(c *Container) (interface{}, error) {
		if _, err := c.Get(ServiceRPCServer); err != nil {
			return nil, err
		}
		svc, err := Resolve[*service.Service](c, ServiceLedger)
		if err != nil {
			return nil, err
		}
		ws := rpc.NewWebSocketServer(p.config.Server.RequestTimeout)
		svc.Subscribe(rpc.NewPublisher(ws.Subscriptions()))
		c.OnClose(ServiceWebSocket, func() error {
			ws.Close()
			return nil
		})

		m, err := Resolve[*metrics.Metrics](c, ServiceMetrics)
		if err != nil {
			return nil, err
		}
		if m != nil {
			subs := ws.Subscriptions()
			if err := m.GaugeFunc("ws_connections", "Open WebSocket connections.", func() float64 {
				return float64(subs.ConnectionCount())
			}); err != nil {
				return nil, err
			}
			if err := m.GaugeFunc("ws_dropped_messages", "Stream messages skipped for slow clients.", func() float64 {
				return float64(subs.Dropped())
			}); err != nil {
				return nil, err
			}
		}
		return ws, nil
	})

	p.container.RegisterBuilder(ServiceGRPCServer, func(c *Container) (interface{}, error) {
		if !p.config.Server.HasGRPC() {
			return nil, nil
		}
		svc, err := Resolve[*service.Service](c, ServiceLedger)
		if err != nil {
			return nil, err
		}
		m, err := Resolve[*metrics.Metrics](c, ServiceMetrics)
		if err != nil {
			return nil, err
		}
		grpcCfg := grpcserver.DefaultServerConfig()
		grpcCfg.Address = p.config.Server.GRPCAddress
		grpcCfg.RequestTimeout = p.config.Server.RequestTimeout

		var observer grpcserver.CallObserver
		if m != nil {
			observer = m
		}
		return grpcserver.NewServer(grpcCfg, svc, observer)
	})
}

// GetLedgerService returns the ledger service from the container.
func (p *Provider) GetLedgerService() (*service.Service, error) {
	return Resolve[*service.Service](p.container, ServiceLedger)
}

// GetConfig returns the configuration from the container.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

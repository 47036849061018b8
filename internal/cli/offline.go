package cli

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goPropLedger/internal/config"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/di"
)

var errEmptyLedger = errors.New("ledger is empty: start the node or import a snapshot first")

// offlineLedger is the state store of a stopped node.
type offlineLedger struct {
	container *di.Container
	store     view.Committer
}

// openOffline opens the configured store without the journal or any listener.
// The node must not be running against the same store.
func openOffline(cfg *config.Config) (*offlineLedger, error) {
	if !cfg.NodeDB.IsPersistent() {
		return nil, fmt.Errorf("node_db type %q keeps no state on disk", cfg.NodeDB.Type)
	}
	offline := *cfg
	offline.Journal.Enabled = false
	offline.Server.Metrics = false
	offline.Server.GRPCAddress = ""

	c := di.New()
	if err := di.NewProvider(c, &offline).RegisterAll(); err != nil {
		return nil, err
	}
	store, err := di.Resolve[view.Committer](c, di.ServiceLedgerStore)
	if err != nil {
		c.Close()
		return nil, err
	}
	return &offlineLedger{container: c, store: store}, nil
}

func (l *offlineLedger) initialized() (bool, error) {
	return genesis.Initialized(l.store)
}

// service starts the ledger service. Unless createGenesis is set it refuses
// an empty store rather than writing genesis into it.
func (l *offlineLedger) service(createGenesis bool) (*service.Service, error) {
	if !createGenesis {
		ok, err := l.initialized()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errEmptyLedger
		}
	}
	return di.Resolve[*service.Service](l.container, di.ServiceLedger)
}

func (l *offlineLedger) Close() error {
	return l.container.Close()
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

type staticLedger struct {
	r view.Reader
}

func (s staticLedger) View() view.Reader { return s.r }

func TestTransactionAndEventCounters(t *testing.T) {
	m := New()
	env := jtx.NewTestEnv(t)
	env.Engine().Observe(m)
	env.Engine().Subscribe(m)

	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(amount.Tokens(1000), bob)
	id := env.MintAsset(alice)
	env.ApproveMarket(alice)
	jtx.RequireTxSuccess(t, env.Submit(market.NewList(alice.ID, id, amount.Tokens(100))))
	jtx.RequireTxFail(t, env.Submit(market.NewBuyProperty(alice.ID, id)), tx.TecINVALID_OPERATION)
	jtx.RequireTxSuccess(t, env.Submit(market.NewMakeOffer(bob.ID, id, amount.Tokens(70))))

	success := tx.TesSUCCESS.String()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("List", success)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("BuyProperty", tx.TecINVALID_OPERATION.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transactions.WithLabelValues("BuyProperty", success)))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(tx.StreamMarket, tx.EventListed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(tx.StreamMarket, tx.EventOfferMade)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.events.WithLabelValues(tx.StreamMarket, tx.EventSold)))
}

func TestLedgerGauges(t *testing.T) {
	m := New()
	env := jtx.NewTestEnv(t)
	require.NoError(t, m.RegisterLedgerGauges(staticLedger{r: env.View()}))

	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")
	env.Fund(amount.Tokens(1000), bob)
	id := env.MintAsset(alice)
	env.ApproveMarket(alice)
	env.Submit(market.NewList(alice.ID, id, amount.Tokens(100)))
	env.Submit(market.NewMakeOffer(bob.ID, id, amount.Tokens(70)))
	env.Submit(market.NewMakeOffer(bob.ID, id, amount.Tokens(80)))

	expected := `
# HELP propledger_active_listings Assets currently listed for sale.
# TYPE propledger_active_listings gauge
propledger_active_listings 1
# HELP propledger_assets_total Assets minted so far.
# TYPE propledger_assets_total gauge
propledger_assets_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"propledger_active_listings", "propledger_assets_total"))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, f := range families {
		if len(f.GetMetric()) == 1 && f.GetMetric()[0].GetGauge() != nil {
			values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(amount.Tokens(150).Units()), values["propledger_escrow_held_units"])
	assert.Equal(t, float64(genesis.DefaultInitialSupply.Units()), values["propledger_token_supply_units"])

	assert.Error(t, m.RegisterLedgerGauges(staticLedger{r: env.View()}), "duplicate registration")
}

func TestGRPCCallsAndHandler(t *testing.T) {
	m := New()
	m.ObserveCall("/propledger.v1.Query/GetListing", "OK", 2*time.Millisecond)
	m.ObserveCall("/propledger.v1.Query/GetListing", "NotFound", time.Millisecond)
	m.ObserveCall("/propledger.v1.Query/GetListing", "OK", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.grpcCalls.WithLabelValues("/propledger.v1.Query/GetListing", "OK")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.grpcLatency))

	require.NoError(t, m.GaugeFunc("ws_connections", "Open WebSocket connections.", func() float64 { return 3 }))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `propledger_grpc_requests_total{code="NotFound",method="/propledger.v1.Query/GetListing"} 1`)
	assert.Contains(t, body, "propledger_ws_connections 3")
	assert.Contains(t, body, "go_goroutines")
}

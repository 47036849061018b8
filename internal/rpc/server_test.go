package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/genesis"
	"github.com/LeJamon/goPropLedger/internal/core/ledger/service"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
	"github.com/LeJamon/goPropLedger/internal/core/tx/yield"
	"github.com/LeJamon/goPropLedger/internal/rpc/rpc_types"
	jtx "github.com/LeJamon/goPropLedger/internal/testing"
)

type rpcFixture struct {
	svc   *service.Service
	clock *jtx.ManualClock
	admin *jtx.Account
}

// setupServices installs a standalone ledger as the RPC services
func setupServices(t *testing.T) *rpcFixture {
	t.Helper()
	admin := jtx.AdminAccount()
	clock := jtx.NewManualClock()
	svc, err := service.New(service.Config{
		Standalone: true,
		Genesis:    genesis.DefaultConfig(admin.ID),
		Clock:      clock,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	oldServices := rpc_types.Services
	rpc_types.Services = &rpc_types.ServiceContainer{Ledger: svc}
	t.Cleanup(func() { rpc_types.Services = oldServices })
	return &rpcFixture{svc: svc, clock: clock, admin: admin}
}

func (f *rpcFixture) apply(t *testing.T, txn tx.Transaction) {
	t.Helper()
	res := f.svc.Submit(txn)
	require.True(t, res.Applied, "%s: %s", txn.TxType(), res.Message)
}

func call(t *testing.T, s *Server, method string, params interface{}) map[string]interface{} {
	t.Helper()
	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Result
}

func units(a amount.Amount) string {
	return strconv.FormatUint(a.Units(), 10)
}

func requireSuccess(t *testing.T, result map[string]interface{}) {
	t.Helper()
	require.Equal(t, "success", result["status"], "%v", result)
}

func requireError(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	require.Equal(t, "error", result["status"], "%v", result)
	assert.Equal(t, code, result["error"])
}

func TestServerInfo(t *testing.T) {
	f := setupServices(t)
	s := NewServer(time.Second)

	result := call(t, s, "server_info", nil)
	requireSuccess(t, result)
	info := result["info"].(map[string]interface{})
	assert.Equal(t, "standalone", info["server_state"])
	assert.Equal(t, f.admin.ID.String(), info["admin"])
	assert.Equal(t, units(genesis.DefaultInitialSupply), info["total_supply"])

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), `"server_state":"standalone"`)
}

func TestEnvelopeErrors(t *testing.T) {
	setupServices(t)
	s := NewServer(time.Second)

	requireError(t, call(t, s, "no_such_method", nil), "unknownCmd")

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{"))))
	assert.Contains(t, rec.Body.String(), `"error":"jsonInvalid"`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"params":[]}`))))
	assert.Contains(t, rec.Body.String(), `"error":"missingCommand"`)

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	requireError(t, call(t, s, "ping", map[string]interface{}{"api_version": 9}), "invalidApiVersion")

	oldServices := rpc_types.Services
	rpc_types.Services = nil
	requireError(t, call(t, s, "server_info", nil), "internal")
	rpc_types.Services = oldServices
}

func TestSubmitAndQueries(t *testing.T) {
	f := setupServices(t)
	s := NewServer(time.Second)
	alice := jtx.NewAccount("alice")
	bob := jtx.NewAccount("bob")

	transfer, err := json.Marshal(token.NewTokenTransfer(f.admin.ID, bob.ID, amount.Tokens(500)))
	require.NoError(t, err)
	result := call(t, s, "submit", map[string]interface{}{"tx_json": json.RawMessage(transfer)})
	requireSuccess(t, result)
	assert.Equal(t, "tesSUCCESS", result["engine_result"])
	assert.Equal(t, true, result["applied"])
	assert.NotEmpty(t, result["tx_hash"])

	result = call(t, s, "submit", map[string]interface{}{
		"tx_json": market.NewBuyProperty(bob.ID, 42),
	})
	requireSuccess(t, result)
	assert.Equal(t, float64(tx.TecNOT_FOUND), result["engine_result_code"])
	assert.Equal(t, false, result["applied"])

	requireError(t, call(t, s, "submit", map[string]interface{}{}), "invalidParams")

	f.apply(t, asset.NewAssetMint(f.admin.ID, alice.ID))
	f.apply(t, asset.NewAssetSetApprovalForAll(alice.ID, account.Market, true))
	f.apply(t, market.NewList(alice.ID, 0, amount.Tokens(100)))
	f.apply(t, market.NewMakeOffer(bob.ID, 0, amount.Tokens(70)))
	f.apply(t, yield.NewRegisterProperty(f.admin.ID, 0))

	result = call(t, s, "balance", map[string]interface{}{"account": bob.ID.String()})
	requireSuccess(t, result)
	assert.Equal(t, units(amount.Tokens(430)), result["balance"])

	requireError(t, call(t, s, "balance", map[string]interface{}{"account": "bob"}), "actMalformed")
	requireError(t, call(t, s, "balance", nil), "invalidParams")

	result = call(t, s, "listing", map[string]interface{}{"asset_id": 0})
	requireSuccess(t, result)
	listing := result["listing"].(map[string]interface{})
	assert.Equal(t, alice.ID.String(), listing["seller"])
	assert.Equal(t, true, listing["active"])

	requireError(t, call(t, s, "listing", map[string]interface{}{"asset_id": "9"}), "objectNotFound")
	requireError(t, call(t, s, "listing", map[string]interface{}{"asset_id": -1}), "invalidParams")

	result = call(t, s, "offer", map[string]interface{}{"asset_id": 0, "offer_id": 0})
	requireSuccess(t, result)
	assert.Equal(t, bob.ID.String(), result["offer"].(map[string]interface{})["buyer"])
	requireError(t, call(t, s, "offer", map[string]interface{}{"asset_id": 0}), "invalidParams")

	result = call(t, s, "offers", map[string]interface{}{"asset_id": 0, "active_only": true})
	requireSuccess(t, result)
	assert.Equal(t, float64(1), result["offer_count"])
	assert.Len(t, result["offers"], 1)

	result = call(t, s, "market_info", nil)
	requireSuccess(t, result)
	assert.Equal(t, float64(market.DefaultFeeBasisPoints), result["fee_bps"])
	assert.Equal(t, units(amount.Tokens(70)), result["total_escrow"])

	f.clock.Advance(200 * time.Second)
	result = call(t, s, "pending_yield", map[string]interface{}{"asset_id": 0})
	requireSuccess(t, result)
	assert.Equal(t, units(amount.Tokens(2)), result["pending"])
	requireError(t, call(t, s, "pending_yield", map[string]interface{}{"asset_id": 5}), "objectNotFound")

	result = call(t, s, "yield_info", nil)
	requireSuccess(t, result)
	assert.Len(t, result["registrations"], 1)

	result = call(t, s, "asset_info", map[string]interface{}{"asset_id": 0})
	requireSuccess(t, result)
	assert.NotNil(t, result["listing"])

	result = call(t, s, "account_assets", map[string]interface{}{"account": alice.ID.String()})
	requireSuccess(t, result)
	assert.Equal(t, []interface{}{float64(0)}, result["assets"])

	requireError(t, call(t, s, "events", nil), "notEnabled")
	requireError(t, call(t, s, "subscribe", nil), "notSupported")
}

func TestMethodList(t *testing.T) {
	s := NewServer(time.Second)
	assert.Contains(t, s.Methods(), "submit")
	assert.Contains(t, s.Methods(), "pending_yield")
	assert.Contains(t, s.Methods(), "events")
}

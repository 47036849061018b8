// Package testing provides test infrastructure for marketplace and yield
// transaction testing.
//
// # Overview
//
// The testing package provides:
//   - TestEnv: an engine over an in-memory ledger with genesis already written
//   - Account: deterministic test accounts with key pairs
//   - ManualClock: a clock tests advance explicitly
//   - Assertions: helpers for results, balances and ownership
//
// # Basic Usage
//
//	func TestBuy(t *testing.T) {
//	    env := jtx.NewTestEnv(t)
//	    alice := jtx.NewAccount("alice")
//	    bob := jtx.NewAccount("bob")
//	    env.Fund(amount.Tokens(5000), bob)
//
//	    id := env.MintAsset(alice)
//	    env.ApproveMarket(alice)
//	    jtx.RequireTxSuccess(t, env.Submit(market.NewList(alice.ID, id, amount.Tokens(1000))))
//	    jtx.RequireTxSuccess(t, env.Submit(market.NewBuyProperty(bob.ID, id)))
//	    jtx.RequireOwner(t, env, id, bob)
//	}
//
// # Clock Control
//
// Every transaction reads the env clock, so accrual can be driven exactly:
//
//	env.AdvanceTime(100 * time.Second)
//	env.Now()
package testing

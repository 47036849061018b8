package entry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/core/account"
	"github.com/LeJamon/goPropLedger/internal/core/amount"
)

func TestEncodeDecodeListing(t *testing.T) {
	in := &Listing{AssetID: 7, Seller: account.Market, Price: amount.Tokens(1000), Active: true}
	data, err := Encode(in)
	require.NoError(t, err)

	out := &Listing{}
	require.NoError(t, Decode(data, out))
	assert.Equal(t, in, out)
}

func TestEncodeIsDeterministic(t *testing.T) {
	e := &YieldRegistration{AssetID: 1, Registered: true, RegisteredAt: 100, LastAccrualTime: 200}
	a, err := Encode(e)
	require.NoError(t, err)
	b, err := Encode(e)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewCoversAllTypes(t *testing.T) {
	types := []Type{
		TypeBalance, TypeTokenSupply, TypeAsset, TypeAssetCounter, TypeOwnerLink,
		TypeOperator, TypeListing, TypeOffer, TypeOfferCounter, TypeEscrow,
		TypeYieldReg, TypeMarketConfig, TypeYieldConfig, TypeGovernance, TypeHeader,
		TypeSequence,
	}
	for _, typ := range types {
		e, err := New(typ)
		require.NoError(t, err, typ.String())
		assert.Equal(t, typ, e.EntryType())
	}

	_, err := New(Type(0xffff))
	assert.Error(t, err)
	assert.Equal(t, "Unknown(0xffff)", Type(0xffff).String())
}

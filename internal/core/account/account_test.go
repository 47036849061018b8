package account

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goPropLedger/internal/crypto"
)

func TestParseRoundTrip(t *testing.T) {
	kp := crypto.KeyPairFromSeed("alice")
	id := FromPublicKey(kp.PublicKey())

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	bare, err := Parse(id.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, id, bare)
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "0x12", "0xzz00000000000000000000000000000000000000", "0x" + "00112233445566778899aabbccddeeff0011223344"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidID, s)
	}
}

func TestModuleAccounts(t *testing.T) {
	assert.True(t, Market.IsModule())
	assert.True(t, YieldMinter.IsModule())
	assert.False(t, Zero.IsModule())
	assert.True(t, Zero.IsZero())
	assert.NotEqual(t, Market, YieldMinter)
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		Owner ID `json:"owner"`
	}
	in := wrapper{Owner: Market}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), Market.String())

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

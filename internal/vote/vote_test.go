package vote

import (
	"crypto/ecdsa"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAction_JSONWireFormat(t *testing.T) {
	// The exchange's verifier expects the JSON action object keyed by
	// "type"/"riskFreeRate"; the Go field names must never leak onto
	// the wire (submit.go JSON-encodes this same Action).
	action := NewAction("0.04500000")

	body, err := json.Marshal(action)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"validatorL1Stream","riskFreeRate":"0.04500000"}`, string(body))
}

func TestActionHash_Deterministic(t *testing.T) {
	action := NewAction("0.03701946")

	h1, err := ActionHash(action, 1_700_000_000_000)
	require.NoError(t, err)
	h2, err := ActionHash(action, 1_700_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestActionHash_NonceChangesHash(t *testing.T) {
	action := NewAction("0.03701946")

	h1, err := ActionHash(action, 1_700_000_000_000)
	require.NoError(t, err)
	h2, err := ActionHash(action, 1_700_000_000_001)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestActionHash_FieldOrderFixed(t *testing.T) {
	// Action's msgpack tags declare type before riskFreeRate; swapping
	// construction order through the same struct type cannot change the
	// encoded byte order, since msgpack/v5 encodes by declared field
	// order, not by assignment order or a map representation.
	a := Action{Type: "validatorL1Stream", RiskFreeRate: "0.04500000"}
	b := Action{RiskFreeRate: "0.04500000", Type: "validatorL1Stream"}

	h1, err := ActionHash(a, 42)
	require.NoError(t, err)
	h2, err := ActionHash(b, 42)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func newTestKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	return priv
}

func TestSign_ProducesLow27V(t *testing.T) {
	priv := newTestKey(t)
	action := NewAction("0.04500000")
	actionHash, err := ActionHash(action, 1)
	require.NoError(t, err)
	digest := SigningHash(true, actionHash)

	for i := 0; i < 20; i++ {
		sig, err := Sign(priv, digest, "test-signer")
		require.NoError(t, err)
		assert.Contains(t, []uint64{27, 28}, sig.V)
	}
}

func TestSigningHash_NetworkBindsSignature(t *testing.T) {
	action := NewAction("0.04500000")
	actionHash, err := ActionHash(action, 1)
	require.NoError(t, err)

	mainnetHash := SigningHash(true, actionHash)
	testnetHash := SigningHash(false, actionHash)
	assert.NotEqual(t, mainnetHash, testnetHash)
}

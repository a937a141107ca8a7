package auth

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

func newSigner(t *testing.T) (*btcec.PrivateKey, string) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv, hex.EncodeToString(schnorr.SerializePubKey(priv.PubKey()))
}

func TestSchnorrAuthorizer(t *testing.T) {
	ctx := context.Background()
	authorizer, err := New(config.AuthConfig{Mode: config.AuthModeSchnorr})
	require.NoError(t, err)

	priv, signer := newSigner(t)
	op := types.Operation{
		Action: types.ActionStake,
		Signer: signer,
		Vault:  "vault",
		Amount: 100,
		Now:    1,
	}
	sig, err := SignOperation(priv, op)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		assert.Nil(t, authorizer.Authorize(ctx, op, sig))
	})
	t.Run("time is not signed", func(t *testing.T) {
		later := op
		later.Now = 1000
		assert.Nil(t, authorizer.Authorize(ctx, later, sig))
	})
	t.Run("tampered amount", func(t *testing.T) {
		tampered := op
		tampered.Amount = 101
		err := authorizer.Authorize(ctx, tampered, sig)
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)
	})
	t.Run("other action", func(t *testing.T) {
		other := op
		other.Action = types.ActionUnstake
		err := authorizer.Authorize(ctx, other, sig)
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)
	})
	t.Run("other signer", func(t *testing.T) {
		_, otherSigner := newSigner(t)
		other := op
		other.Signer = otherSigner
		err := authorizer.Authorize(ctx, other, sig)
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)
	})
	t.Run("malformed input", func(t *testing.T) {
		err := authorizer.Authorize(ctx, op, "zz")
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)

		bad := op
		bad.Signer = "abcd"
		err = authorizer.Authorize(ctx, bad, sig)
		require.NotNil(t, err)
		assert.Equal(t, types.Unauthorized, err.ErrorCode)
	})
}

func TestTrustedAuthorizer(t *testing.T) {
	authorizer, err := New(config.AuthConfig{Mode: config.AuthModeTrusted})
	require.NoError(t, err)
	assert.Nil(t, authorizer.Authorize(context.Background(), types.Operation{Action: types.ActionClaimPoints}, ""))

	_, err = New(config.AuthConfig{Mode: "nope"})
	assert.Error(t, err)
}

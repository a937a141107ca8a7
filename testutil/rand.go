package testutil

import (
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/stretchr/testify/require"
)

// RandomAlphaNum returns a lowercase alphanumeric string, usable in
// container and database names.
func RandomAlphaNum(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0, got %d", length)
	}
	return gofakeit.Regex(fmt.Sprintf("[a-z0-9]{%d}", length)), nil
}

// RandomIdentity returns a fresh signing key and its x-only public key hex,
// the form participants and vault authorities are identified by.
func RandomIdentity(t testing.TB) (*btcec.PrivateKey, string) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv, hex.EncodeToString(schnorr.SerializePubKey(priv.PubKey()))
}

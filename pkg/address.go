package pkg

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

const addressLen = 20

// NormalizeIdentity validates a hex encoded 32 byte x-only public key and
// returns it in lowercase.
func NormalizeIdentity(identity string) (string, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	bz, err := hex.DecodeString(identity)
	if err != nil {
		return "", fmt.Errorf("identity %q is not hex encoded: %w", identity, err)
	}
	if _, err := schnorr.ParsePubKey(bz); err != nil {
		return "", fmt.Errorf("identity %q is not an x-only public key: %w", identity, err)
	}
	return identity, nil
}

// DeriveAddress deterministically derives the bech32 address of the record
// labelled seed belonging to identity.
func DeriveAddress(prefix, seed, identity string) (string, error) {
	bz, err := hex.DecodeString(identity)
	if err != nil {
		return "", fmt.Errorf("identity %q is not hex encoded: %w", identity, err)
	}

	hash := chainhash.TaggedHash([]byte(seed), bz)
	return sdk.Bech32ifyAddressBytes(prefix, hash[:addressLen])
}

// ValidateAddress checks that address is a well formed bech32 address with prefix.
func ValidateAddress(address, prefix string) error {
	bz, err := sdk.GetFromBech32(address, prefix)
	if err != nil {
		return err
	}

	return sdk.VerifyAddressFormat(bz)
}

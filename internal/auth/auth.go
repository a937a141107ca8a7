package auth

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/babylonlabs-io/staking-ledger/internal/config"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// OperationTag domain-separates operation signatures from any other use of the key.
const OperationTag = "staking-ledger/operation"

type Authorizer interface {
	// Authorize checks that op was issued by its signer. signature is the
	// hex encoded proof; its meaning depends on the implementation.
	Authorize(ctx context.Context, op types.Operation, signature string) *types.Error
}

func New(cfg config.AuthConfig) (Authorizer, error) {
	switch cfg.Mode {
	case config.AuthModeSchnorr:
		return &SchnorrAuthorizer{}, nil
	case config.AuthModeTrusted:
		return &TrustedAuthorizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}

// OperationHash is the digest a signer signs to authorize op.
func OperationHash(op types.Operation) *chainhash.Hash {
	return chainhash.TaggedHash([]byte(OperationTag), op.Message())
}

// SignOperation returns the hex encoded BIP-340 signature of op by priv.
func SignOperation(priv *btcec.PrivateKey, op types.Operation) (string, error) {
	sig, err := schnorr.Sign(priv, OperationHash(op)[:])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig.Serialize()), nil
}

// SchnorrAuthorizer accepts an operation carrying a valid BIP-340 signature
// by the x-only public key named as its signer.
type SchnorrAuthorizer struct{}

func (a *SchnorrAuthorizer) Authorize(_ context.Context, op types.Operation, signature string) *types.Error {
	pkBytes, err := hex.DecodeString(op.Signer)
	if err != nil {
		return types.NewLedgerError(types.Unauthorized, "signer is not hex encoded: %v", err)
	}
	pubKey, err := schnorr.ParsePubKey(pkBytes)
	if err != nil {
		return types.NewLedgerError(types.Unauthorized, "invalid signer public key: %v", err)
	}

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return types.NewLedgerError(types.Unauthorized, "signature is not hex encoded: %v", err)
	}
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return types.NewLedgerError(types.Unauthorized, "invalid signature: %v", err)
	}

	if !sig.Verify(OperationHash(op)[:], pubKey) {
		return types.NewLedgerError(types.Unauthorized, "signature does not match %s", op.Signer)
	}
	return nil
}

// TrustedAuthorizer accepts every operation. It is used when the host has
// already authenticated the caller.
type TrustedAuthorizer struct{}

func (a *TrustedAuthorizer) Authorize(context.Context, types.Operation, string) *types.Error {
	return nil
}

package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces an eth-sign signature over a 32-byte order hash. It may
// wrap a local key or a remote signer.
type Signer interface {
	Sign(ctx context.Context, hash common.Hash) (ECSignature, error)
}

// SignerFunc adapts a function to Signer.
type SignerFunc func(ctx context.Context, hash common.Hash) (ECSignature, error)

func (f SignerFunc) Sign(ctx context.Context, hash common.Hash) (ECSignature, error) {
	return f(ctx, hash)
}

// KeySigner signs with a local secp256k1 private key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner parses a hex private key, with or without 0x.
func NewKeySigner(privateKeyHex string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strip0x(privateKeyHex))
	if err != nil {
		return nil, &SigningError{Message: "invalid private key", Err: err}
	}
	return NewKeySignerFromKey(key), nil
}

func NewKeySignerFromKey(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Address returns the address of the signing key
func (s *KeySigner) Address() common.Address {
	return s.address
}

// Sign signs keccak256("\x19Ethereum Signed Message:\n32" ++ hash) and
// returns v as 27 or 28.
func (s *KeySigner) Sign(ctx context.Context, hash common.Hash) (ECSignature, error) {
	if err := ctx.Err(); err != nil {
		return ECSignature{}, &SigningError{Message: "sign cancelled", Err: err}
	}

	signature, err := crypto.Sign(accounts.TextHash(hash.Bytes()), s.key)
	if err != nil {
		return ECSignature{}, &SigningError{Message: "failed to sign order hash", Err: err}
	}

	return ECSignature{
		V: signature[crypto.RecoveryIDOffset] + 27,
		R: new(big.Int).SetBytes(signature[:32]),
		S: new(big.Int).SetBytes(signature[32:64]),
	}, nil
}

// RecoverSigner returns the address that produced an eth-sign signature
// over hash.
func RecoverSigner(hash common.Hash, sig ECSignature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, fmt.Errorf("%w: v must be 27 or 28, got %d", ErrInvalidSignature, sig.V)
	}
	r, err := word(sig.R)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: r %v", ErrInvalidSignature, err)
	}
	s, err := word(sig.S)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: s %v", ErrInvalidSignature, err)
	}

	raw := make([]byte, crypto.SignatureLength)
	copy(raw[:32], r[:])
	copy(raw[32:64], s[:])
	raw[crypto.RecoveryIDOffset] = sig.V - 27

	pub, err := crypto.SigToPub(accounts.TextHash(hash.Bytes()), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SignatureType is the trailing tag byte of a 0x signature.
type SignatureType uint8

const (
	SignatureTypeIllegal SignatureType = iota
	SignatureTypeInvalid
	SignatureTypeEIP712
	SignatureTypeEthSign
	SignatureTypeWallet
	SignatureTypeValidator
	SignatureTypePreSigned
)

func (t SignatureType) String() string {
	switch t {
	case SignatureTypeIllegal:
		return "Illegal"
	case SignatureTypeInvalid:
		return "Invalid"
	case SignatureTypeEIP712:
		return "EIP712"
	case SignatureTypeEthSign:
		return "EthSign"
	case SignatureTypeWallet:
		return "Wallet"
	case SignatureTypeValidator:
		return "Validator"
	case SignatureTypePreSigned:
		return "PreSigned"
	}
	return "SignatureType(" + strconv.Itoa(int(t)) + ")"
}

// ECSignature is a secp256k1 signature with v in {27, 28}.
type ECSignature struct {
	V uint8
	R *big.Int
	S *big.Int
}

// EncodeSignature packs sig into the eth-sign wire form:
// hex(v) ++ hex32(r) ++ hex32(s) ++ "03".
//
// v keeps its minimal hex width, so v=27 encodes as "0x1b" and v=1 as "0x1".
func EncodeSignature(sig ECSignature) (string, error) {
	r, err := word(sig.R)
	if err != nil {
		return "", fmt.Errorf("%w: r %v", ErrInvalidSignature, err)
	}
	s, err := word(sig.S)
	if err != nil {
		return "", fmt.Errorf("%w: s %v", ErrInvalidSignature, err)
	}

	var b strings.Builder
	b.Grow(2 + 2 + 64 + 64 + 2)
	b.WriteString("0x")
	b.WriteString(strconv.FormatUint(uint64(sig.V), 16))
	b.WriteString(hex.EncodeToString(r[:]))
	b.WriteString(hex.EncodeToString(s[:]))
	b.WriteString(fmt.Sprintf("%02x", uint8(SignatureTypeEthSign)))
	return b.String(), nil
}

// DecodeSignature splits a packed signature into its parts. The last two
// hex characters are the type tag, the 128 before them are r and s, and
// whatever remains is v.
func DecodeSignature(packed string) (ECSignature, SignatureType, error) {
	digits := strip0x(packed)
	if len(digits) < 1+128+2 {
		return ECSignature{}, 0, fmt.Errorf("%w: %d hex digits", ErrInvalidSignature, len(digits))
	}

	n := len(digits)
	tag, err := hex.DecodeString(digits[n-2:])
	if err != nil {
		return ECSignature{}, 0, fmt.Errorf("%w: type tag: %v", ErrInvalidSignature, err)
	}
	s, err := hex.DecodeString(digits[n-66 : n-2])
	if err != nil {
		return ECSignature{}, 0, fmt.Errorf("%w: s: %v", ErrInvalidSignature, err)
	}
	r, err := hex.DecodeString(digits[n-130 : n-66])
	if err != nil {
		return ECSignature{}, 0, fmt.Errorf("%w: r: %v", ErrInvalidSignature, err)
	}
	v, err := strconv.ParseUint(digits[:n-130], 16, 8)
	if err != nil {
		return ECSignature{}, 0, fmt.Errorf("%w: v: %v", ErrInvalidSignature, err)
	}

	sig := ECSignature{
		V: uint8(v),
		R: new(big.Int).SetBytes(r),
		S: new(big.Int).SetBytes(s),
	}
	return sig, SignatureType(tag[0]), nil
}

// SignatureBytes converts a packed hex signature to raw bytes. An odd
// number of hex digits is left-padded with a single zero.
func SignatureBytes(packed string) ([]byte, error) {
	b, err := decodeHex(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return b, nil
}

func word(x *big.Int) ([32]byte, error) {
	if x == nil {
		return [32]byte{}, ErrMissingField
	}
	if x.Sign() < 0 {
		return [32]byte{}, ErrNegativeAmount
	}
	u, overflow := uint256.FromBig(x)
	if overflow {
		return [32]byte{}, ErrAmountOverflow
	}
	return u.Bytes32(), nil
}

func strip0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// decodeHex accepts hex with or without the 0x prefix. Odd-length input is
// left-padded with a zero nibble.
func decodeHex(s string) ([]byte, error) {
	digits := strip0x(strings.TrimSpace(s))
	for _, c := range digits {
		if !isHexDigit(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
	}
	return common.FromHex(digits), nil
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

package chain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Wire document keys
const (
	FieldMakerAddress          = "makerAddress"
	FieldTakerAddress          = "takerAddress"
	FieldFeeRecipientAddress   = "feeRecipientAddress"
	FieldSenderAddress         = "senderAddress"
	FieldExchangeAddress       = "exchangeAddress"
	FieldMakerAssetAmount      = "makerAssetAmount"
	FieldTakerAssetAmount      = "takerAssetAmount"
	FieldMakerFee              = "makerFee"
	FieldTakerFee              = "takerFee"
	FieldSalt                  = "salt"
	FieldExpirationTimeSeconds = "expirationTimeSeconds"
	FieldMakerAssetData        = "makerAssetData"
	FieldTakerAssetData        = "takerAssetData"
	FieldHash                  = "hash"
	FieldSignature             = "signature"
)

// WireMode selects how field values are represented.
type WireMode int

const (
	// WireModeStorage renders every value as a string: lowercase
	// addresses, decimal integers and 0x-prefixed hex.
	WireModeStorage WireMode = iota
	// WireModeContractCall renders values as exchange contract arguments:
	// checksummed addresses, *big.Int amounts and raw []byte data.
	WireModeContractCall
)

func (m WireMode) String() string {
	switch m {
	case WireModeStorage:
		return "storage"
	case WireModeContractCall:
		return "on-chain-call"
	}
	return "WireMode(" + strconv.Itoa(int(m)) + ")"
}

// WireOptions controls which optional keys ToWire emits.
type WireOptions struct {
	IncludeHash      bool
	IncludeSignature bool
	// IncludeExchangeAddress defaults to true in storage mode and false in
	// contract-call mode, where the exchange is the call target.
	IncludeExchangeAddress *bool
}

// DefaultWireOptions includes the signature and nothing else optional.
func DefaultWireOptions() WireOptions {
	return WireOptions{IncludeSignature: true}
}

func (opts WireOptions) includeExchange(mode WireMode) bool {
	if opts.IncludeExchangeAddress != nil {
		return *opts.IncludeExchangeAddress
	}
	return mode == WireModeStorage
}

// ToWire renders the order as a wire document. A requested signature is
// omitted while the order is unsigned.
func (o *SignedOrder) ToWire(mode WireMode, opts WireOptions) map[string]interface{} {
	if mode == WireModeContractCall {
		return o.contractCallDocument(opts)
	}
	return o.ToStorage(opts).Map()
}

func (o *SignedOrder) contractCallDocument(opts WireOptions) map[string]interface{} {
	doc := map[string]interface{}{
		FieldMakerAddress:          o.makerAddress.Hex(),
		FieldTakerAddress:          o.takerAddress.Hex(),
		FieldFeeRecipientAddress:   o.feeRecipientAddress.Hex(),
		FieldSenderAddress:         o.senderAddress.Hex(),
		FieldMakerAssetAmount:      o.MakerAssetAmount(),
		FieldTakerAssetAmount:      o.TakerAssetAmount(),
		FieldMakerFee:              o.MakerFee(),
		FieldTakerFee:              o.TakerFee(),
		FieldSalt:                  o.Salt(),
		FieldExpirationTimeSeconds: o.ExpirationTimeSeconds(),
		FieldMakerAssetData:        o.MakerAssetData(),
		FieldTakerAssetData:        o.TakerAssetData(),
	}
	if opts.includeExchange(WireModeContractCall) {
		doc[FieldExchangeAddress] = o.exchangeAddress.Hex()
	}
	if opts.IncludeHash {
		doc[FieldHash] = o.Hash().Bytes()
	}
	if opts.IncludeSignature && o.signature != "" {
		// The signature was validated when it was attached.
		sig, _ := SignatureBytes(o.signature)
		doc[FieldSignature] = sig
	}
	return doc
}

// StorageOrder is the storage-mode wire form of an order.
type StorageOrder struct {
	MakerAddress          string `json:"makerAddress"`
	TakerAddress          string `json:"takerAddress"`
	FeeRecipientAddress   string `json:"feeRecipientAddress"`
	SenderAddress         string `json:"senderAddress"`
	MakerAssetAmount      string `json:"makerAssetAmount"`
	TakerAssetAmount      string `json:"takerAssetAmount"`
	MakerFee              string `json:"makerFee"`
	TakerFee              string `json:"takerFee"`
	Salt                  string `json:"salt"`
	ExpirationTimeSeconds string `json:"expirationTimeSeconds"`
	MakerAssetData        string `json:"makerAssetData"`
	TakerAssetData        string `json:"takerAssetData"`
	ExchangeAddress       string `json:"exchangeAddress,omitempty"`
	Hash                  string `json:"hash,omitempty"`
	Signature             string `json:"signature,omitempty"`
}

// ToStorage renders the order in storage mode.
func (o *SignedOrder) ToStorage(opts WireOptions) StorageOrder {
	s := StorageOrder{
		MakerAddress:          lowerHex(o.makerAddress),
		TakerAddress:          lowerHex(o.takerAddress),
		FeeRecipientAddress:   lowerHex(o.feeRecipientAddress),
		SenderAddress:         lowerHex(o.senderAddress),
		MakerAssetAmount:      o.makerAssetAmount.String(),
		TakerAssetAmount:      o.takerAssetAmount.String(),
		MakerFee:              o.makerFee.String(),
		TakerFee:              o.takerFee.String(),
		Salt:                  o.salt.String(),
		ExpirationTimeSeconds: o.expirationTimeSeconds.String(),
		MakerAssetData:        hexutil.Encode(o.makerAssetData),
		TakerAssetData:        hexutil.Encode(o.takerAssetData),
	}
	if opts.includeExchange(WireModeStorage) {
		s.ExchangeAddress = lowerHex(o.exchangeAddress)
	}
	if opts.IncludeHash {
		s.Hash = o.Hash().Hex()
	}
	if opts.IncludeSignature {
		s.Signature = o.signature
	}
	return s
}

// Map returns s as a wire document, leaving out empty optional keys.
func (s StorageOrder) Map() map[string]interface{} {
	doc := map[string]interface{}{
		FieldMakerAddress:          s.MakerAddress,
		FieldTakerAddress:          s.TakerAddress,
		FieldFeeRecipientAddress:   s.FeeRecipientAddress,
		FieldSenderAddress:         s.SenderAddress,
		FieldMakerAssetAmount:      s.MakerAssetAmount,
		FieldTakerAssetAmount:      s.TakerAssetAmount,
		FieldMakerFee:              s.MakerFee,
		FieldTakerFee:              s.TakerFee,
		FieldSalt:                  s.Salt,
		FieldExpirationTimeSeconds: s.ExpirationTimeSeconds,
		FieldMakerAssetData:        s.MakerAssetData,
		FieldTakerAssetData:        s.TakerAssetData,
	}
	optional := map[string]string{
		FieldExchangeAddress: s.ExchangeAddress,
		FieldHash:            s.Hash,
		FieldSignature:       s.Signature,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}
	return doc
}

// ContractOrder is the Exchange contract's Order tuple.
type ContractOrder struct {
	MakerAddress          common.Address
	TakerAddress          common.Address
	FeeRecipientAddress   common.Address
	SenderAddress         common.Address
	MakerAssetAmount      *big.Int
	TakerAssetAmount      *big.Int
	MakerFee              *big.Int
	TakerFee              *big.Int
	ExpirationTimeSeconds *big.Int
	Salt                  *big.Int
	MakerAssetData        []byte
	TakerAssetData        []byte
}

// ContractOrder returns the order as an ABI tuple value.
func (o *SignedOrder) ContractOrder() ContractOrder {
	return ContractOrder{
		MakerAddress:          o.makerAddress,
		TakerAddress:          o.takerAddress,
		FeeRecipientAddress:   o.feeRecipientAddress,
		SenderAddress:         o.senderAddress,
		MakerAssetAmount:      o.MakerAssetAmount(),
		TakerAssetAmount:      o.TakerAssetAmount(),
		MakerFee:              o.MakerFee(),
		TakerFee:              o.TakerFee(),
		ExpirationTimeSeconds: o.ExpirationTimeSeconds(),
		Salt:                  o.Salt(),
		MakerAssetData:        o.MakerAssetData(),
		TakerAssetData:        o.TakerAssetData(),
	}
}

// FromWireOptions controls FromWire.
type FromWireOptions struct {
	// ValidateSchema checks the document with Validator before reading it.
	ValidateSchema bool
	// ExpectSignature requires a signature and selects SignedOrderSchema.
	ExpectSignature bool
	// Validator defaults to NewDocumentValidator().
	Validator SchemaValidator
	// ExchangeAddress is used when the document has no exchangeAddress.
	ExchangeAddress common.Address
	CreatedAt       time.Time
}

var orderFieldOrder = []string{
	FieldMakerAddress,
	FieldTakerAddress,
	FieldFeeRecipientAddress,
	FieldSenderAddress,
	FieldExchangeAddress,
	FieldMakerAssetAmount,
	FieldTakerAssetAmount,
	FieldMakerFee,
	FieldTakerFee,
	FieldSalt,
	FieldExpirationTimeSeconds,
	FieldMakerAssetData,
	FieldTakerAssetData,
}

// FromWire reads an order from a wire document in either mode and hashes
// it. A hash carried by the document must match the computed one.
func FromWire(data map[string]interface{}, opts FromWireOptions) (*SignedOrder, error) {
	doc, err := normalizeDocument(data)
	if err != nil {
		return nil, err
	}
	if _, ok := doc[FieldExchangeAddress]; !ok && opts.ExchangeAddress != NullAddress {
		doc[FieldExchangeAddress] = lowerHex(opts.ExchangeAddress)
	}

	if opts.ValidateSchema {
		v := opts.Validator
		if v == nil {
			v = NewDocumentValidator()
		}
		schema := OrderSchema
		if opts.ExpectSignature {
			schema = SignedOrderSchema
		}
		if err := v.Validate(doc, schema); err != nil {
			return nil, err
		}
	}

	o := newOrder(opts.CreatedAt)
	setters := map[string]func(string) error{
		FieldMakerAddress:          o.SetMakerAddress,
		FieldTakerAddress:          o.SetTakerAddress,
		FieldFeeRecipientAddress:   o.SetFeeRecipientAddress,
		FieldSenderAddress:         o.SetSenderAddress,
		FieldExchangeAddress:       o.SetExchangeAddress,
		FieldMakerAssetAmount:      o.SetMakerAssetAmount,
		FieldTakerAssetAmount:      o.SetTakerAssetAmount,
		FieldMakerFee:              o.SetMakerFee,
		FieldTakerFee:              o.SetTakerFee,
		FieldSalt:                  o.SetSalt,
		FieldExpirationTimeSeconds: o.SetExpirationTimeSeconds,
		FieldMakerAssetData:        o.SetMakerAssetData,
		FieldTakerAssetData:        o.SetTakerAssetData,
	}
	for _, field := range orderFieldOrder {
		value, ok := doc[field]
		if !ok {
			return nil, &ValidationError{Field: field, Value: nil, Err: ErrMissingField}
		}
		if err := setters[field](value.(string)); err != nil {
			return nil, err
		}
	}

	if opts.ExpectSignature {
		sig, ok := doc[FieldSignature]
		if !ok {
			return nil, &ValidationError{Field: FieldSignature, Value: nil, Err: ErrMissingField}
		}
		if err := o.SetSignature(sig.(string)); err != nil {
			return nil, err
		}
	}

	h := o.ComputeHash()
	if want, ok := doc[FieldHash]; ok && !strings.EqualFold(strip0x(want.(string)), strip0x(h.Hex())) {
		return nil, &ValidationError{Field: FieldHash, Value: want, Err: ErrHashMismatch}
	}
	return o, nil
}

// FromStorage is FromWire for a StorageOrder.
func FromStorage(s StorageOrder, opts FromWireOptions) (*SignedOrder, error) {
	return FromWire(s.Map(), opts)
}

// normalizeDocument converts every non-nil value to its storage-mode string.
func normalizeDocument(data map[string]interface{}) (map[string]interface{}, error) {
	doc := make(map[string]interface{}, len(data))
	for k, v := range data {
		if v == nil {
			continue
		}
		s, err := wireString(v)
		if err != nil {
			return nil, &ValidationError{Field: k, Value: v, Err: err}
		}
		doc[k] = s
	}
	return doc, nil
}

func wireString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case *big.Int:
		if x == nil {
			return "", ErrMissingField
		}
		return x.String(), nil
	case big.Int:
		return x.String(), nil
	case decimal.Decimal:
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		// Plain json.Unmarshal decodes numbers as float64. Only integers below
		// 2^53 survive that exactly; anything else must come as a string or
		// json.Number.
		if math.Trunc(x) != x || math.Abs(x) >= 1<<53 {
			return "", ErrImpreciseNumber
		}
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case []byte:
		return hexutil.Encode(x), nil
	case hexutil.Bytes:
		return hexutil.Encode(x), nil
	case common.Address:
		return x.Hex(), nil
	case *common.Address:
		if x == nil {
			return "", ErrMissingField
		}
		return x.Hex(), nil
	case common.Hash:
		return x.Hex(), nil
	case [32]byte:
		return hexutil.Encode(x[:]), nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

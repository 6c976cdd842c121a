package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/kaifufi/zeroex-order-sdk-go/units"
)

// DefaultExpiration is added to the creation time when an order is built
// without an explicit expiration.
const DefaultExpiration = 60 * time.Second

// maxExpirationUnix is 9999-12-31T23:59:59Z.
const maxExpirationUnix = 253402300799

// sortKeyIntegerDigits is wide enough for any quotient of two uint256 values.
const sortKeyIntegerDigits = 78

// maxFractionDigits bounds the negative exponent of integer inputs written
// with trailing fractional zeros, such as "1.000".
const maxFractionDigits = 78

// MaxAskPrice is the ask price of an order with a zero asset amount.
var MaxAskPrice = decimal.RequireFromString(strings.Repeat("9", 32))

// NullAddress is the all-zero address used for unset roles.
var NullAddress = common.Address{}

// OrderState tracks how far an order has progressed towards being signed.
type OrderState int

const (
	OrderStateUnhashed OrderState = iota
	OrderStateHashed
	OrderStateSigned
)

func (s OrderState) String() string {
	switch s {
	case OrderStateUnhashed:
		return "unhashed"
	case OrderStateHashed:
		return "hashed"
	case OrderStateSigned:
		return "signed"
	}
	return fmt.Sprintf("OrderState(%d)", int(s))
}

// SortSide selects which derived price an order sorts by.
type SortSide int

const (
	SortByBid SortSide = iota
	SortByAsk
)

func (s SortSide) String() string {
	if s == SortByAsk {
		return "ask"
	}
	return "bid"
}

// ParseSortSide is the inverse of SortSide.String.
func ParseSortSide(s string) (SortSide, error) {
	switch strings.ToLower(s) {
	case "", "bid":
		return SortByBid, nil
	case "ask":
		return SortByAsk, nil
	}
	return SortByBid, fmt.Errorf("unknown sort side %q", s)
}

// OrderFields holds constructor input. Empty strings select the default:
// the null address, a zero amount, empty asset data, or an expiration
// DefaultExpiration after CreatedAt.
type OrderFields struct {
	MakerAddress          string
	TakerAddress          string
	FeeRecipientAddress   string
	SenderAddress         string
	ExchangeAddress       string
	MakerAssetAmount      string
	TakerAssetAmount      string
	MakerFee              string
	TakerFee              string
	Salt                  string
	ExpirationTimeSeconds string
	MakerAssetData        string
	TakerAssetData        string
	Signature             string
	CreatedAt             time.Time
}

// SignedOrder is a 0x v2 order together with its cached hash and optional
// signature.
//
// Every setter validates its input before touching the order. Changing a
// field that takes part in the hash drops both the cached hash and any
// attached signature, so a signature never outlives the fields it covers.
//
// A SignedOrder is not safe for concurrent use.
type SignedOrder struct {
	makerAddress        common.Address
	takerAddress        common.Address
	feeRecipientAddress common.Address
	senderAddress       common.Address
	exchangeAddress     common.Address

	makerAssetAmount      *big.Int
	takerAssetAmount      *big.Int
	makerFee              *big.Int
	takerFee              *big.Int
	salt                  *big.Int
	expirationTimeSeconds *big.Int

	makerAssetData []byte
	takerAssetData []byte

	signature string
	hash      *common.Hash

	createdAt time.Time
	bidPrice  decimal.Decimal
	askPrice  decimal.Decimal
	sortSide  SortSide
}

func newOrder(createdAt time.Time) *SignedOrder {
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	o := &SignedOrder{
		makerAssetAmount:      new(big.Int),
		takerAssetAmount:      new(big.Int),
		makerFee:              new(big.Int),
		takerFee:              new(big.Int),
		salt:                  new(big.Int),
		expirationTimeSeconds: big.NewInt(createdAt.Add(DefaultExpiration).Unix()),
		makerAssetData:        []byte{},
		takerAssetData:        []byte{},
		createdAt:             createdAt,
	}
	o.updatePrices()
	return o
}

// NewSignedOrder builds an order from f, applying defaults for empty fields.
func NewSignedOrder(f OrderFields) (*SignedOrder, error) {
	o := newOrder(f.CreatedAt)

	fields := []struct {
		value string
		set   func(string) error
	}{
		{f.MakerAddress, o.SetMakerAddress},
		{f.TakerAddress, o.SetTakerAddress},
		{f.FeeRecipientAddress, o.SetFeeRecipientAddress},
		{f.SenderAddress, o.SetSenderAddress},
		{f.ExchangeAddress, o.SetExchangeAddress},
		{f.MakerAssetAmount, o.SetMakerAssetAmount},
		{f.TakerAssetAmount, o.SetTakerAssetAmount},
		{f.MakerFee, o.SetMakerFee},
		{f.TakerFee, o.SetTakerFee},
		{f.Salt, o.SetSalt},
		{f.ExpirationTimeSeconds, o.SetExpirationTimeSeconds},
		{f.MakerAssetData, o.SetMakerAssetData},
		{f.TakerAssetData, o.SetTakerAssetData},
		{f.Signature, o.SetSignature},
	}
	for _, field := range fields {
		if field.value == "" {
			continue
		}
		if err := field.set(field.value); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *SignedOrder) SetMakerAddress(addr string) error {
	return o.setAddress(&o.makerAddress, FieldMakerAddress, addr)
}

func (o *SignedOrder) SetTakerAddress(addr string) error {
	return o.setAddress(&o.takerAddress, FieldTakerAddress, addr)
}

func (o *SignedOrder) SetFeeRecipientAddress(addr string) error {
	return o.setAddress(&o.feeRecipientAddress, FieldFeeRecipientAddress, addr)
}

func (o *SignedOrder) SetSenderAddress(addr string) error {
	return o.setAddress(&o.senderAddress, FieldSenderAddress, addr)
}

func (o *SignedOrder) SetExchangeAddress(addr string) error {
	return o.setAddress(&o.exchangeAddress, FieldExchangeAddress, addr)
}

// SetMakerAssetAmount sets the maker amount in base units and re-derives
// the bid and ask prices.
func (o *SignedOrder) SetMakerAssetAmount(amount string) error {
	if err := o.setUint256(&o.makerAssetAmount, FieldMakerAssetAmount, amount); err != nil {
		return err
	}
	o.updatePrices()
	return nil
}

// SetTakerAssetAmount sets the taker amount in base units and re-derives
// the bid and ask prices.
func (o *SignedOrder) SetTakerAssetAmount(amount string) error {
	if err := o.setUint256(&o.takerAssetAmount, FieldTakerAssetAmount, amount); err != nil {
		return err
	}
	o.updatePrices()
	return nil
}

func (o *SignedOrder) SetMakerFee(fee string) error {
	return o.setUint256(&o.makerFee, FieldMakerFee, fee)
}

func (o *SignedOrder) SetTakerFee(fee string) error {
	return o.setUint256(&o.takerFee, FieldTakerFee, fee)
}

func (o *SignedOrder) SetSalt(salt string) error {
	return o.setUint256(&o.salt, FieldSalt, salt)
}

// SetExpirationTimeSeconds sets the unix expiry. Fractional seconds are
// rounded half to even.
func (o *SignedOrder) SetExpirationTimeSeconds(secs string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(secs))
	if err != nil {
		return &ValidationError{Field: FieldExpirationTimeSeconds, Value: secs, Err: ErrInvalidAmount}
	}
	if d.IsZero() {
		return o.setUint256(&o.expirationTimeSeconds, FieldExpirationTimeSeconds, "0")
	}
	if err := checkScale(d); err != nil {
		return &ValidationError{Field: FieldExpirationTimeSeconds, Value: secs, Err: err}
	}
	return o.setUint256(&o.expirationTimeSeconds, FieldExpirationTimeSeconds, d.RoundBank(0).String())
}

// SetExpiration is SetExpirationTimeSeconds for a time.Time.
func (o *SignedOrder) SetExpiration(t time.Time) error {
	return o.SetExpirationTimeSeconds(fmt.Sprint(t.Unix()))
}

func (o *SignedOrder) SetMakerAssetData(data string) error {
	return o.setBytes(&o.makerAssetData, FieldMakerAssetData, data)
}

func (o *SignedOrder) SetTakerAssetData(data string) error {
	return o.setBytes(&o.takerAssetData, FieldTakerAssetData, data)
}

func (o *SignedOrder) setAddress(dst *common.Address, field, value string) error {
	addr, err := parseAddress(field, value)
	if err != nil {
		return err
	}
	*dst = addr
	o.invalidate()
	return nil
}

func (o *SignedOrder) setUint256(dst **big.Int, field, value string) error {
	n, err := parseUint256(field, value)
	if err != nil {
		return err
	}
	*dst = n
	o.invalidate()
	return nil
}

func (o *SignedOrder) setBytes(dst *[]byte, field, value string) error {
	b, err := decodeHex(value)
	if err != nil {
		return &ValidationError{Field: field, Value: value, Err: ErrInvalidHex}
	}
	*dst = b
	o.invalidate()
	return nil
}

func (o *SignedOrder) invalidate() {
	o.hash = nil
	o.signature = ""
}

func (o *SignedOrder) updatePrices() {
	if o.makerAssetAmount.Sign() == 0 || o.takerAssetAmount.Sign() == 0 {
		o.bidPrice = decimal.Zero
		o.askPrice = MaxAskPrice
		return
	}
	maker := decimal.NewFromBigInt(o.makerAssetAmount, 0)
	taker := decimal.NewFromBigInt(o.takerAssetAmount, 0)
	// Both divisors are non-zero here.
	o.bidPrice, _ = units.DivHalfEven(taker, maker, units.PriceDecimals)
	o.askPrice, _ = units.DivHalfEven(maker, taker, units.PriceDecimals)
}

func (o *SignedOrder) MakerAddress() common.Address        { return o.makerAddress }
func (o *SignedOrder) TakerAddress() common.Address        { return o.takerAddress }
func (o *SignedOrder) FeeRecipientAddress() common.Address { return o.feeRecipientAddress }
func (o *SignedOrder) SenderAddress() common.Address       { return o.senderAddress }
func (o *SignedOrder) ExchangeAddress() common.Address     { return o.exchangeAddress }

func (o *SignedOrder) MakerAssetAmount() *big.Int { return new(big.Int).Set(o.makerAssetAmount) }
func (o *SignedOrder) TakerAssetAmount() *big.Int { return new(big.Int).Set(o.takerAssetAmount) }
func (o *SignedOrder) MakerFee() *big.Int         { return new(big.Int).Set(o.makerFee) }
func (o *SignedOrder) TakerFee() *big.Int         { return new(big.Int).Set(o.takerFee) }
func (o *SignedOrder) Salt() *big.Int             { return new(big.Int).Set(o.salt) }

func (o *SignedOrder) ExpirationTimeSeconds() *big.Int {
	return new(big.Int).Set(o.expirationTimeSeconds)
}

func (o *SignedOrder) MakerAssetData() []byte { return cloneBytes(o.makerAssetData) }
func (o *SignedOrder) TakerAssetData() []byte { return cloneBytes(o.takerAssetData) }

// ExpirationTime returns the expiry as a time.Time. Expirations past the end
// of year 9999 are clamped to it.
func (o *SignedOrder) ExpirationTime() time.Time {
	secs := o.expirationTimeSeconds
	if !secs.IsInt64() || secs.Int64() > maxExpirationUnix {
		return time.Unix(maxExpirationUnix, 0)
	}
	return time.Unix(secs.Int64(), 0)
}

// CreatedAt is the time the order object was constructed.
func (o *SignedOrder) CreatedAt() time.Time { return o.createdAt }

// IsExpired reports whether the order has expired at now.
func (o *SignedOrder) IsExpired(now time.Time) bool {
	return o.expirationTimeSeconds.Cmp(big.NewInt(now.Unix())) <= 0
}

// BidPrice is the taker asset paid per unit of maker asset.
func (o *SignedOrder) BidPrice() decimal.Decimal { return o.bidPrice }

// AskPrice is the maker asset asked per unit of taker asset.
func (o *SignedOrder) AskPrice() decimal.Decimal { return o.askPrice }

// SetBidAsSortPrice makes SortPrice follow the bid price.
func (o *SignedOrder) SetBidAsSortPrice() *SignedOrder {
	o.sortSide = SortByBid
	return o
}

// SetAskAsSortPrice makes SortPrice follow the ask price.
func (o *SignedOrder) SetAskAsSortPrice() *SignedOrder {
	o.sortSide = SortByAsk
	return o
}

func (o *SignedOrder) SortSide() SortSide { return o.sortSide }

// SortPrice returns the price selected by SortSide. The bid price is used
// unless SetAskAsSortPrice was called.
func (o *SignedOrder) SortPrice() decimal.Decimal {
	if o.sortSide == SortByAsk {
		return o.askPrice
	}
	return o.bidPrice
}

// SortKey renders SortPrice as a fixed-width string whose byte order
// matches numeric order.
func (o *SignedOrder) SortKey() string {
	integer, fraction, _ := strings.Cut(o.SortPrice().StringFixed(units.PriceDecimals), ".")
	if pad := sortKeyIntegerDigits - len(integer); pad > 0 {
		integer = strings.Repeat("0", pad) + integer
	}
	return integer + "." + fraction
}

// TypedData returns a copy of the hashed fields.
func (o *SignedOrder) TypedData() *OrderTypedData {
	return &OrderTypedData{
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

// ComputeHash recomputes and caches the order hash.
func (o *SignedOrder) ComputeHash() common.Hash {
	h := HashOrder(o.exchangeAddress, o.TypedData())
	o.hash = &h
	return h
}

// Hash returns the cached order hash, computing it first if needed.
func (o *SignedOrder) Hash() common.Hash {
	if o.hash == nil {
		return o.ComputeHash()
	}
	return *o.hash
}

func (o *SignedOrder) State() OrderState {
	switch {
	case o.signature != "":
		return OrderStateSigned
	case o.hash != nil:
		return OrderStateHashed
	}
	return OrderStateUnhashed
}

// Signature returns the packed hex signature, or "" when unsigned.
func (o *SignedOrder) Signature() string { return o.signature }

// AttachSignature packs sig and attaches it, hashing the order first if
// it has not been hashed yet.
func (o *SignedOrder) AttachSignature(sig ECSignature) error {
	packed, err := EncodeSignature(sig)
	if err != nil {
		return err
	}
	o.Hash()
	o.signature = packed
	return nil
}

// SetSignature attaches an already packed hex signature.
func (o *SignedOrder) SetSignature(packed string) error {
	b, err := decodeHex(packed)
	if err != nil || len(b) == 0 {
		return &ValidationError{Field: FieldSignature, Value: packed, Err: ErrInvalidHex}
	}
	o.Hash()
	o.signature = "0x" + strings.ToLower(strip0x(strings.TrimSpace(packed)))
	return nil
}

// ClearSignature drops the signature and keeps the cached hash.
func (o *SignedOrder) ClearSignature() {
	o.signature = ""
}

// ECSignature decodes the attached signature.
func (o *SignedOrder) ECSignature() (ECSignature, SignatureType, error) {
	if o.signature == "" {
		return ECSignature{}, 0, ErrNotSigned
	}
	return DecodeSignature(o.signature)
}

// Sign hashes the order, asks signer for a signature over the hash and
// attaches it. Errors from signer are returned unchanged.
func (o *SignedOrder) Sign(ctx context.Context, signer Signer) error {
	if signer == nil {
		return ErrSignerRequired
	}
	sig, err := signer.Sign(ctx, o.Hash())
	if err != nil {
		return err
	}
	return o.AttachSignature(sig)
}

// VerifySignature checks that the attached eth-sign signature was made by
// the maker over the current hash.
func (o *SignedOrder) VerifySignature() error {
	sig, sigType, err := o.ECSignature()
	if err != nil {
		return err
	}
	if sigType != SignatureTypeEthSign {
		return fmt.Errorf("%w: unsupported signature type %s", ErrInvalidSignature, sigType)
	}
	signer, err := RecoverSigner(o.Hash(), sig)
	if err != nil {
		return err
	}
	if signer != o.makerAddress {
		return fmt.Errorf("%w: signed by %s, maker is %s", ErrInvalidSignature, signer.Hex(), o.makerAddress.Hex())
	}
	return nil
}

// Clone returns a deep copy of the order.
func (o *SignedOrder) Clone() *SignedOrder {
	c := *o
	c.makerAssetAmount = o.MakerAssetAmount()
	c.takerAssetAmount = o.TakerAssetAmount()
	c.makerFee = o.MakerFee()
	c.takerFee = o.TakerFee()
	c.salt = o.Salt()
	c.expirationTimeSeconds = o.ExpirationTimeSeconds()
	c.makerAssetData = o.MakerAssetData()
	c.takerAssetData = o.TakerAssetData()
	if o.hash != nil {
		h := *o.hash
		c.hash = &h
	}
	return &c
}

func (o *SignedOrder) String() string {
	hash := "<unhashed>"
	if o.hash != nil {
		hash = o.hash.Hex()
	}
	return fmt.Sprintf(
		"SignedOrder(hash=%s, maker=%s, taker=%s, feeRecipient=%s, sender=%s, exchange=%s, "+
			"makerAssetAmount=%s, takerAssetAmount=%s, makerFee=%s, takerFee=%s, salt=%s, "+
			"makerAssetData=%s, takerAssetData=%s, expires=%s, signature=%s)",
		hash,
		lowerHex(o.makerAddress), lowerHex(o.takerAddress), lowerHex(o.feeRecipientAddress),
		lowerHex(o.senderAddress), lowerHex(o.exchangeAddress),
		o.makerAssetAmount, o.takerAssetAmount, o.makerFee, o.takerFee, o.salt,
		hexutil.Encode(o.makerAssetData), hexutil.Encode(o.takerAssetData),
		o.expirationTimeSeconds, o.signature,
	)
}

func parseAddress(field, value string) (common.Address, error) {
	s := strings.TrimSpace(value)
	if !common.IsHexAddress(s) {
		return common.Address{}, &ValidationError{Field: field, Value: value, Err: ErrInvalidAddress}
	}
	return common.HexToAddress(s), nil
}

func parseUint256(field, value string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return nil, &ValidationError{Field: field, Value: value, Err: ErrInvalidAmount}
	}
	if d.IsZero() {
		return new(big.Int), nil
	}
	if d.Sign() < 0 {
		return nil, &ValidationError{Field: field, Value: value, Err: ErrNegativeAmount}
	}
	if err := checkScale(d); err != nil {
		return nil, &ValidationError{Field: field, Value: value, Err: err}
	}
	if !d.IsInteger() {
		return nil, &ValidationError{Field: field, Value: value, Err: ErrInvalidAmount}
	}
	n := d.BigInt()
	if _, overflow := uint256.FromBig(n); overflow {
		return nil, &ValidationError{Field: field, Value: value, Err: ErrAmountOverflow}
	}
	return n, nil
}

// checkScale bounds the exponent of a non-zero decimal before it is
// rescaled; IsInteger and RoundBank are linear in the exponent.
func checkScale(d decimal.Decimal) error {
	if d.Exponent() < -maxFractionDigits {
		return ErrInvalidAmount
	}
	if d.NumDigits()+int(d.Exponent()) > sortKeyIntegerDigits {
		return ErrAmountOverflow
	}
	return nil
}

func lowerHex(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func cloneBytes(b []byte) []byte {
	return append([]byte{}, b...)
}

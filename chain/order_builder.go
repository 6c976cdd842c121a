package chain

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// maxSalt bounds generated salts to 256 bits
var maxSalt = new(big.Int).Lsh(big.NewInt(1), 256)

// OrderData represents the data for building an order. Amounts are in
// base units and asset data is 0x-prefixed hex.
type OrderData struct {
	MakerAddress          string
	TakerAddress          string
	FeeRecipientAddress   string
	SenderAddress         string
	MakerAssetAmount      string
	TakerAssetAmount      string
	MakerFee              string
	TakerFee              string
	MakerAssetData        string
	TakerAssetData        string
	ExpirationTimeSeconds string
	Salt                  string
}

// OrderBuilder builds and signs orders for one exchange
type OrderBuilder struct {
	exchangeAddr common.Address
	feeRecipient common.Address
	ttl          time.Duration
	signer       Signer
	now          func() time.Time
}

// NewOrderBuilder creates a new OrderBuilder. feeRecipient may be empty and
// ttl zero, which selects DefaultExpiration.
func NewOrderBuilder(exchangeAddr, feeRecipient string, ttl time.Duration, signer Signer) (*OrderBuilder, error) {
	exchange, err := parseAddress(FieldExchangeAddress, exchangeAddr)
	if err != nil {
		return nil, err
	}
	var recipient common.Address
	if feeRecipient != "" {
		if recipient, err = parseAddress(FieldFeeRecipientAddress, feeRecipient); err != nil {
			return nil, err
		}
	}
	if ttl <= 0 {
		ttl = DefaultExpiration
	}

	return &OrderBuilder{
		exchangeAddr: exchange,
		feeRecipient: recipient,
		ttl:          ttl,
		signer:       signer,
		now:          time.Now,
	}, nil
}

// ExchangeAddress returns the exchange the builder targets
func (ob *OrderBuilder) ExchangeAddress() common.Address {
	return ob.exchangeAddr
}

// BuildOrder builds an unsigned order from OrderData
func (ob *OrderBuilder) BuildOrder(data *OrderData) (*SignedOrder, error) {
	if err := ob.validateInputs(data); err != nil {
		return nil, err
	}

	createdAt := ob.now()
	salt := data.Salt
	if salt == "" {
		generated, err := generateSalt()
		if err != nil {
			return nil, err
		}
		salt = generated
	}
	expiration := data.ExpirationTimeSeconds
	if expiration == "" {
		expiration = fmt.Sprint(createdAt.Add(ob.ttl).Unix())
	}
	feeRecipient := data.FeeRecipientAddress
	if feeRecipient == "" {
		feeRecipient = ob.feeRecipient.Hex()
	}

	return NewSignedOrder(OrderFields{
		MakerAddress:          data.MakerAddress,
		TakerAddress:          data.TakerAddress,
		FeeRecipientAddress:   feeRecipient,
		SenderAddress:         data.SenderAddress,
		ExchangeAddress:       ob.exchangeAddr.Hex(),
		MakerAssetAmount:      data.MakerAssetAmount,
		TakerAssetAmount:      data.TakerAssetAmount,
		MakerFee:              data.MakerFee,
		TakerFee:              data.TakerFee,
		Salt:                  salt,
		ExpirationTimeSeconds: expiration,
		MakerAssetData:        data.MakerAssetData,
		TakerAssetData:        data.TakerAssetData,
		CreatedAt:             createdAt,
	})
}

// BuildSignedOrder builds and signs an order
func (ob *OrderBuilder) BuildSignedOrder(ctx context.Context, data *OrderData) (*SignedOrder, error) {
	order, err := ob.BuildOrder(data)
	if err != nil {
		return nil, err
	}
	if err := ob.SignOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// SignOrder signs an order with the builder's signer
func (ob *OrderBuilder) SignOrder(ctx context.Context, order *SignedOrder) error {
	if ob.signer == nil {
		return ErrSignerRequired
	}
	return order.Sign(ctx, ob.signer)
}

func (ob *OrderBuilder) validateInputs(data *OrderData) error {
	if data == nil {
		return fmt.Errorf("order data is required")
	}
	required := []struct {
		field, value string
	}{
		{FieldMakerAddress, data.MakerAddress},
		{FieldMakerAssetAmount, data.MakerAssetAmount},
		{FieldTakerAssetAmount, data.TakerAssetAmount},
		{FieldMakerAssetData, data.MakerAssetData},
		{FieldTakerAssetData, data.TakerAssetData},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Value: r.value, Err: ErrMissingField}
		}
	}
	return nil
}

func generateSalt() (string, error) {
	salt, err := rand.Int(rand.Reader, maxSalt)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt.String(), nil
}

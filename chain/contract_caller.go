package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// OrderStatus codes returned by Exchange.getOrderInfo
type OrderStatus uint8

const (
	OrderStatusInvalid OrderStatus = iota
	OrderStatusInvalidMakerAssetAmount
	OrderStatusInvalidTakerAssetAmount
	OrderStatusFillable
	OrderStatusExpired
	OrderStatusFullyFilled
	OrderStatusCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusInvalid:
		return "INVALID"
	case OrderStatusInvalidMakerAssetAmount:
		return "INVALID_MAKER_ASSET_AMOUNT"
	case OrderStatusInvalidTakerAssetAmount:
		return "INVALID_TAKER_ASSET_AMOUNT"
	case OrderStatusFillable:
		return "FILLABLE"
	case OrderStatusExpired:
		return "EXPIRED"
	case OrderStatusFullyFilled:
		return "FULLY_FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("OrderStatus(%d)", uint8(s))
}

// OrderInfo is the Exchange's view of an order
type OrderInfo struct {
	Status                 OrderStatus
	Hash                   common.Hash
	TakerAssetFilledAmount *big.Int
}

func (i OrderInfo) String() string {
	return fmt.Sprintf("OrderInfo(%s, %s, filled=%s)", i.Status, i.Hash.Hex(), i.TakerAssetFilledAmount)
}

// exchangeOrderInfo mirrors the getOrderInfo output tuple
type exchangeOrderInfo struct {
	OrderStatus                 uint8
	OrderHash                   [32]byte
	OrderTakerAssetFilledAmount *big.Int
}

// ContractCaller builds Exchange calldata and performs read-only calls.
// Transactions are never signed or sent.
type ContractCaller struct {
	client             ethereum.ContractCaller
	exchangeAddr       common.Address
	tokenDecimalsCache map[common.Address]uint8
	cacheMutex         sync.Mutex
}

// NewContractCaller creates a ContractCaller for the given exchange. client
// may be nil when only calldata is needed.
func NewContractCaller(client ethereum.ContractCaller, exchangeAddr common.Address) *ContractCaller {
	return &ContractCaller{
		client:             client,
		exchangeAddr:       exchangeAddr,
		tokenDecimalsCache: make(map[common.Address]uint8),
	}
}

// ExchangeAddress returns the exchange contract address
func (cc *ContractCaller) ExchangeAddress() common.Address {
	return cc.exchangeAddr
}

// FillOrderCalldata encodes Exchange.fillOrder for a signed order
func (cc *ContractCaller) FillOrderCalldata(order *SignedOrder, takerAssetFillAmount *big.Int) ([]byte, error) {
	if err := cc.checkExchange(order); err != nil {
		return nil, err
	}
	if takerAssetFillAmount == nil || takerAssetFillAmount.Sign() <= 0 {
		return nil, &ValidationError{Field: "takerAssetFillAmount", Value: takerAssetFillAmount, Err: ErrInvalidAmount}
	}
	if order.Signature() == "" {
		return nil, ErrNotSigned
	}
	signature, err := SignatureBytes(order.Signature())
	if err != nil {
		return nil, err
	}

	data, err := exchangeABI.Pack("fillOrder", order.ContractOrder(), takerAssetFillAmount, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to pack fillOrder: %w", err)
	}
	return data, nil
}

// CancelOrderCalldata encodes Exchange.cancelOrder
func (cc *ContractCaller) CancelOrderCalldata(order *SignedOrder) ([]byte, error) {
	if err := cc.checkExchange(order); err != nil {
		return nil, err
	}
	data, err := exchangeABI.Pack("cancelOrder", order.ContractOrder())
	if err != nil {
		return nil, fmt.Errorf("failed to pack cancelOrder: %w", err)
	}
	return data, nil
}

// GetOrderInfo asks the exchange for the status of order
func (cc *ContractCaller) GetOrderInfo(ctx context.Context, order *SignedOrder) (*OrderInfo, error) {
	if cc.client == nil {
		return nil, fmt.Errorf("no contract caller configured")
	}
	if err := cc.checkExchange(order); err != nil {
		return nil, err
	}

	data, err := exchangeABI.Pack("getOrderInfo", order.ContractOrder())
	if err != nil {
		return nil, fmt.Errorf("failed to pack getOrderInfo: %w", err)
	}

	result, err := cc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &cc.exchangeAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getOrderInfo: %w", err)
	}

	out, err := exchangeABI.Unpack("getOrderInfo", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getOrderInfo: %w", err)
	}
	raw := *abi.ConvertType(out[0], new(exchangeOrderInfo)).(*exchangeOrderInfo)

	return &OrderInfo{
		Status:                 OrderStatus(raw.OrderStatus),
		Hash:                   common.Hash(raw.OrderHash),
		TakerAssetFilledAmount: raw.OrderTakerAssetFilledAmount,
	}, nil
}

// GetTokenDecimals gets token decimals with caching
func (cc *ContractCaller) GetTokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	cc.cacheMutex.Lock()
	decimals, ok := cc.tokenDecimalsCache[token]
	cc.cacheMutex.Unlock()
	if ok {
		return decimals, nil
	}
	if cc.client == nil {
		return 0, fmt.Errorf("no contract caller configured")
	}

	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	result, err := cc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call decimals on %s: %w", token.Hex(), err)
	}
	out, err := erc20ABI.Unpack("decimals", result)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack decimals: %w", err)
	}
	decimals = *abi.ConvertType(out[0], new(uint8)).(*uint8)

	cc.cacheMutex.Lock()
	cc.tokenDecimalsCache[token] = decimals
	cc.cacheMutex.Unlock()
	return decimals, nil
}

func (cc *ContractCaller) checkExchange(order *SignedOrder) error {
	if order.ExchangeAddress() != cc.exchangeAddr {
		return &ValidationError{Field: FieldExchangeAddress, Value: order.ExchangeAddress().Hex(), Err: ErrInvalidAddress}
	}
	return nil
}

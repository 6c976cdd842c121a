// Package zeroex builds, signs and stores 0x v2 orders for a trading agent.
package zeroex

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
	"github.com/kaifufi/zeroex-order-sdk-go/store"
	"github.com/kaifufi/zeroex-order-sdk-go/units"
)

// Client is the main SDK client
type Client struct {
	network        Network
	contracts      ContractAddresses
	rpc            *ethclient.Client
	contractCaller *chain.ContractCaller
	builder        *chain.OrderBuilder
	signer         *chain.KeySigner
	store          *store.OrderStore
	tokenDecimals  map[common.Address]int32
	logger         *zap.Logger
}

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	Network Network
	// Contracts replaces the built-in contract table of Network
	Contracts           *ContractAddresses
	RPCURL              string // Optional: needed for on-chain reads
	PrivateKey          string // Optional: needed for signing
	FeeRecipientAddress string
	OrderTTL            time.Duration // Defaults to chain.DefaultExpiration
	StorePath           string        // Optional: enables the order store
	// TokenDecimals adds to the known decimals of ZRX and WETH. Unknown
	// tokens are looked up over RPC.
	TokenDecimals map[string]int32
	LogLevel      string
	Logger        *zap.Logger // Overrides LogLevel
}

// NewClient creates a new 0x order client
func NewClient(config ClientConfig) (*Client, error) {
	var contracts ContractAddresses
	if config.Contracts != nil {
		contracts = *config.Contracts
	} else {
		var err error
		if contracts, err = ContractsFor(config.Network); err != nil {
			return nil, err
		}
	}
	if !common.IsHexAddress(contracts.Exchange) {
		return nil, &InvalidParamError{Message: fmt.Sprintf("exchange address %q is not a valid address", contracts.Exchange)}
	}

	logger := config.Logger
	if logger == nil {
		if config.LogLevel == "" {
			logger = zap.NewNop()
		} else {
			var err error
			if logger, err = NewLogger(config.LogLevel); err != nil {
				return nil, err
			}
		}
	}

	c := &Client{
		network:       config.Network,
		contracts:     contracts,
		tokenDecimals: make(map[common.Address]int32),
		logger:        logger.With(zap.String("network", config.Network.String())),
	}

	for _, token := range []string{contracts.ZRXToken, contracts.EtherToken} {
		if common.IsHexAddress(token) {
			c.tokenDecimals[common.HexToAddress(token)] = units.MaxDecimals
		}
	}
	for token, decimals := range config.TokenDecimals {
		if !common.IsHexAddress(token) {
			return nil, &InvalidParamError{Message: fmt.Sprintf("token address %q is not a valid address", token)}
		}
		if decimals < 0 || decimals > units.MaxDecimals {
			return nil, &InvalidParamError{Message: fmt.Sprintf("decimals for %s must be between 0 and %d", token, units.MaxDecimals)}
		}
		c.tokenDecimals[common.HexToAddress(token)] = decimals
	}

	var signer chain.Signer
	if config.PrivateKey != "" {
		keySigner, err := chain.NewKeySigner(config.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.signer = keySigner
		signer = keySigner
	}

	builder, err := chain.NewOrderBuilder(contracts.Exchange, config.FeeRecipientAddress, config.OrderTTL, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to create order builder: %w", err)
	}
	c.builder = builder

	var caller ethereum.ContractCaller
	if config.RPCURL != "" {
		rpc, err := ethclient.Dial(config.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to RPC: %w", err)
		}
		c.rpc = rpc
		caller = rpc
	}
	c.contractCaller = chain.NewContractCaller(caller, builder.ExchangeAddress())

	if config.StorePath != "" {
		orderStore, err := store.Open(config.StorePath, c.logger)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.store = orderStore
	}

	return c, nil
}

// Close closes the client and cleans up resources
func (c *Client) Close() error {
	var err error
	if c.store != nil {
		err = c.store.Close()
		c.store = nil
	}
	if c.rpc != nil {
		c.rpc.Close()
		c.rpc = nil
	}
	_ = c.logger.Sync()
	return err
}

func (c *Client) Network() Network { return c.network }

func (c *Client) Contracts() ContractAddresses { return c.contracts }

// Address returns the address of the configured private key
func (c *Client) Address() (common.Address, error) {
	if c.signer == nil {
		return common.Address{}, ErrNoSigner
	}
	return c.signer.Address(), nil
}

// NewOrder builds an unsigned ERC20 order from whole-token amounts
func (c *Client) NewOrder(ctx context.Context, params OrderParams) (*chain.SignedOrder, error) {
	maker := params.MakerAddress
	if maker == "" {
		addr, err := c.Address()
		if err != nil {
			return nil, &InvalidParamError{Message: "maker address is required without a private key"}
		}
		maker = addr.Hex()
	}

	makerAssetData, makerAmount, err := c.erc20Leg(ctx, "maker", params.MakerToken, params.MakerAmount)
	if err != nil {
		return nil, err
	}
	takerAssetData, takerAmount, err := c.erc20Leg(ctx, "taker", params.TakerToken, params.TakerAmount)
	if err != nil {
		return nil, err
	}

	data := &chain.OrderData{
		MakerAddress:     maker,
		TakerAddress:     params.TakerAddress,
		SenderAddress:    params.SenderAddress,
		MakerAssetAmount: makerAmount,
		TakerAssetAmount: takerAmount,
		MakerFee:         params.MakerFee,
		TakerFee:         params.TakerFee,
		MakerAssetData:   makerAssetData,
		TakerAssetData:   takerAssetData,
		Salt:             params.Salt,
	}
	if !params.Expiration.IsZero() {
		data.ExpirationTimeSeconds = fmt.Sprint(params.Expiration.Unix())
	}

	order, err := c.builder.BuildOrder(data)
	if err != nil {
		return nil, err
	}
	if params.SortByAsk {
		order.SetAskAsSortPrice()
	}

	c.logger.Info("order_built",
		zap.String("hash", order.Hash().Hex()),
		zap.String("maker", maker),
		zap.String("makerAssetAmount", makerAmount),
		zap.String("takerAssetAmount", takerAmount),
		zap.Int64("expirationTimeSeconds", order.ExpirationTimeSeconds().Int64()),
	)
	return order, nil
}

// SignOrder signs order with the configured private key
func (c *Client) SignOrder(ctx context.Context, order *chain.SignedOrder) error {
	if c.signer == nil {
		return ErrNoSigner
	}
	if err := c.builder.SignOrder(ctx, order); err != nil {
		c.logger.Warn("order_sign_failed", zap.String("hash", order.Hash().Hex()), zap.Error(err))
		return err
	}
	c.logger.Info("order_signed",
		zap.String("hash", order.Hash().Hex()),
		zap.String("state", order.State().String()),
	)
	return nil
}

// PrepareOrder builds and signs an order, and saves it when a store is
// configured.
func (c *Client) PrepareOrder(ctx context.Context, params OrderParams) (*chain.SignedOrder, error) {
	order, err := c.NewOrder(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := c.SignOrder(ctx, order); err != nil {
		return nil, err
	}
	if c.store != nil {
		if err := c.SaveOrder(order); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// SaveOrder writes order to the order store
func (c *Client) SaveOrder(order *chain.SignedOrder) error {
	if c.store == nil {
		return ErrNoStore
	}
	if err := c.store.Put(order); err != nil {
		return err
	}
	c.logger.Info("order_saved", zap.String("hash", order.Hash().Hex()))
	return nil
}

// GetOrder loads an order from the order store
func (c *Client) GetOrder(hash common.Hash) (*chain.SignedOrder, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	return c.store.Get(hash)
}

// DeleteOrder removes an order from the order store
func (c *Client) DeleteOrder(hash common.Hash) error {
	if c.store == nil {
		return ErrNoStore
	}
	if err := c.store.Delete(hash); err != nil {
		return err
	}
	c.logger.Info("order_deleted", zap.String("hash", hash.Hex()))
	return nil
}

// SortedOrders returns stored orders by ascending sort price
func (c *Client) SortedOrders(limit int) ([]*chain.SignedOrder, error) {
	if c.store == nil {
		return nil, ErrNoStore
	}
	return c.store.Sorted(limit)
}

// FillOrderCalldata encodes Exchange.fillOrder for a whole-token taker fill
// amount. The transaction is not sent.
func (c *Client) FillOrderCalldata(ctx context.Context, order *chain.SignedOrder, takerFillAmount string) ([]byte, error) {
	asset, err := chain.DecodeAssetData(order.TakerAssetData())
	if err != nil {
		return nil, err
	}
	if asset.TokenID != nil {
		return nil, &InvalidParamError{Message: "taker asset is not an ERC20 token"}
	}
	baseUnits, err := c.toBaseUnits(ctx, asset.TokenAddress, takerFillAmount)
	if err != nil {
		return nil, err
	}
	amount, _ := new(big.Int).SetString(baseUnits, 10)
	if amount.Sign() <= 0 {
		return nil, &InvalidParamError{Message: "taker fill amount must be positive"}
	}
	return c.contractCaller.FillOrderCalldata(order, amount)
}

// CancelOrderCalldata encodes Exchange.cancelOrder. The transaction is not
// sent.
func (c *Client) CancelOrderCalldata(order *chain.SignedOrder) ([]byte, error) {
	return c.contractCaller.CancelOrderCalldata(order)
}

// GetOrderInfo asks the exchange for the fill status of order
func (c *Client) GetOrderInfo(ctx context.Context, order *chain.SignedOrder) (*chain.OrderInfo, error) {
	if c.rpc == nil {
		return nil, ErrNoRPC
	}
	return c.contractCaller.GetOrderInfo(ctx, order)
}

// TokenDecimals returns the decimals of an ERC20 token, from the configured
// table or the token contract.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (int32, error) {
	if decimals, ok := c.tokenDecimals[token]; ok {
		return decimals, nil
	}
	if c.rpc == nil {
		return 0, fmt.Errorf("%w: decimals of %s unknown", ErrNoRPC, token.Hex())
	}
	decimals, err := c.contractCaller.GetTokenDecimals(ctx, token)
	if err != nil {
		return 0, err
	}
	return int32(decimals), nil
}

func (c *Client) erc20Leg(ctx context.Context, side, token, amount string) (string, string, error) {
	if !common.IsHexAddress(token) {
		return "", "", &InvalidParamError{Message: fmt.Sprintf("%s token %q is not a valid address", side, token)}
	}
	addr := common.HexToAddress(token)

	baseUnits, err := c.toBaseUnits(ctx, addr, amount)
	if err != nil {
		return "", "", err
	}
	if baseUnits == "0" {
		return "", "", &InvalidParamError{Message: fmt.Sprintf("%s amount must be positive", side)}
	}

	assetData, err := chain.EncodeERC20AssetData(addr)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("0x%x", assetData), baseUnits, nil
}

func (c *Client) toBaseUnits(ctx context.Context, token common.Address, amount string) (string, error) {
	value, err := units.ParseAmount(amount)
	if err != nil {
		return "", &InvalidParamError{Message: fmt.Sprintf("amount %q is not a number", amount)}
	}
	if value.IsNegative() {
		return "", &InvalidParamError{Message: fmt.Sprintf("amount %q must not be negative", amount)}
	}
	decimals, err := c.TokenDecimals(ctx, token)
	if err != nil {
		return "", err
	}
	return units.ToBaseUnits(value, decimals)
}

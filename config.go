package zeroex

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Network represents an Ethereum network with a 0x v2 deployment
type Network int

const (
	NetworkMainnet Network = 1
	NetworkRopsten Network = 3
	NetworkRinkeby Network = 4
	NetworkKovan   Network = 42
	NetworkGanache Network = 50 // 0x Ganache snapshot
)

// SupportedNetworks lists all supported networks
var SupportedNetworks = []Network{NetworkMainnet, NetworkRopsten, NetworkRinkeby, NetworkKovan, NetworkGanache}

func (n Network) String() string {
	switch n {
	case NetworkMainnet:
		return "mainnet"
	case NetworkRopsten:
		return "ropsten"
	case NetworkRinkeby:
		return "rinkeby"
	case NetworkKovan:
		return "kovan"
	case NetworkGanache:
		return "ganache"
	}
	return fmt.Sprintf("Network(%d)", int(n))
}

// ParseNetwork accepts a network name or numeric id
func ParseNetwork(s string) (Network, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range SupportedNetworks {
		if s == n.String() || s == strconv.Itoa(int(n)) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedNetwork, s)
}

// ContractAddresses holds the 0x v2 contract addresses of one network
type ContractAddresses struct {
	Exchange        string
	ERC20Proxy      string
	ERC721Proxy     string
	AssetProxyOwner string
	Forwarder       string
	OrderValidator  string
	ZRXToken        string
	EtherToken      string
}

// DefaultContractAddresses maps networks to their contract addresses
var DefaultContractAddresses = map[Network]ContractAddresses{
	NetworkMainnet: {
		Exchange:        "0x4f833a24e1f95d70f028921e27040ca56e09ab0b",
		ERC20Proxy:      "0x2240dab907db71e64d3e0dba4800c83b5c502d4e",
		ERC721Proxy:     "0x208e41fb445f1bb1b6780d58356e81405f3e6127",
		AssetProxyOwner: "0x17992e4ffb22730138e4b62aaa6367fa9d3699a6",
		Forwarder:       "0x5468a1dc173652ee28d249c271fa9933144746b1",
		OrderValidator:  "0x9463e518dea6810309563c81d5266c1b1d149138",
		ZRXToken:        "0xe41d2489571d322189246dafa5ebde1f4699f498",
		EtherToken:      "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
	},
	NetworkRopsten: {
		Exchange:        "0x4530c0483a1633c7a1c97d2c53721caff2caaaaf",
		ERC20Proxy:      "0xb1408f4c245a23c31b98d2c626777d4c0d766caa",
		ERC721Proxy:     "0xe654aac058bfbf9f83fcaee7793311dd82f6ddb4",
		AssetProxyOwner: "0xf5fa5b5fed2727a0e44ac67f6772e97977aa358b",
		Forwarder:       "0x2240dab907db71e64d3e0dba4800c83b5c502d4e",
		OrderValidator:  "0x90431a90516ab49af23a0530e04e8c7836e7122f",
		ZRXToken:        "0xff67881f8d12f372d91baae9752eb3631ff0ed00",
		EtherToken:      "0xc778417e063141139fce010982780140aa0cd5ab",
	},
	NetworkRinkeby: {
		Exchange:        "0xbce0b5f6eb618c565c3e5f5cd69652bbc279f44e",
		ERC20Proxy:      "0x2f5ae4f6106e89b4147651688a92256885c5f410",
		ERC721Proxy:     "0x7656d773e11ff7383a14dcf09a9c50990481cd10",
		AssetProxyOwner: "0xe1703da878afcebff5b7624a826902af475b9c03",
		Forwarder:       "0x2d40589abbdee84961f3a7656b9af7adb0ee5ab4",
		OrderValidator:  "0x0c5173a51e26b29d6126c686756fb9fbef71f762",
		ZRXToken:        "0x8080c7e4b81ecf23aa6f877cfbfd9b0c228c6ffa",
		EtherToken:      "0xc778417e063141139fce010982780140aa0cd5ab",
	},
	NetworkKovan: {
		Exchange:        "0x35dd2932454449b14cee11a94d3674a936d5d7b2",
		ERC20Proxy:      "0xf1ec01d6236d3cd881a0bf0130ea25fe4234003e",
		ERC721Proxy:     "0x2a9127c745688a165106c11cd4d647d2220af821",
		AssetProxyOwner: "0x2c824d2882baa668e0d5202b1e7f2922278703f8",
		Forwarder:       "0x17992e4ffb22730138e4b62aaa6367fa9d3699a6",
		OrderValidator:  "0xb389da3d204b412df2f75c6afb3d0a7ce0bc283d",
		ZRXToken:        "0x2002d3812f58e35f0ea1ffbf80a75a38c32175fa",
		EtherToken:      "0xd0a1e359811322d97991e03f863a0c30c2cf029c",
	},
	NetworkGanache: {
		Exchange:        "0x48bacb9266a570d521063ef5dd96e61686dbe788",
		ERC20Proxy:      "0x1dc4c1cefef38a777b15aa20260a54e584b16c48",
		ERC721Proxy:     "0x1d7022f5b17d2f8b695918fb48fa1089c9f85401",
		AssetProxyOwner: "0x34d402f14d58e001d8efbe6585051bf9706aa064",
		Forwarder:       "0xb69e673309512a9d726f87304c6984054f87a93b",
		OrderValidator:  "0xe86bb98fcf9bff3512c74589b78fb168200cc546",
		ZRXToken:        "0x871dd7c2b4b25e1aa18728e9d5f2af4c4e431f5c",
		EtherToken:      "0x0b1ba0af832d7c05fd64161e0db78e85978e8082",
	},
}

// ContractsFor returns the built-in contract table of a network
func ContractsFor(network Network) (ContractAddresses, error) {
	contracts, ok := DefaultContractAddresses[network]
	if !ok {
		return ContractAddresses{}, fmt.Errorf("%w: %d", ErrUnsupportedNetwork, int(network))
	}
	return contracts, nil
}

// Environment variables read by LoadConfigFromEnv
const (
	EnvNetwork             = "ZEROEX_NETWORK"
	EnvRPCURL              = "ZEROEX_RPC_URL"
	EnvPrivateKey          = "ZEROEX_PRIVATE_KEY"
	EnvExchangeAddress     = "ZEROEX_EXCHANGE_ADDRESS"
	EnvFeeRecipientAddress = "ZEROEX_FEE_RECIPIENT_ADDRESS"
	EnvOrderTTLSeconds     = "ZEROEX_ORDER_TTL_SECONDS"
	EnvStorePath           = "ZEROEX_STORE_PATH"
	EnvLogLevel            = "ZEROEX_LOG_LEVEL"
)

// LoadConfigFromEnv loads configuration from a .env file (if it exists) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadConfigFromEnv(envPath string) (ClientConfig, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg := ClientConfig{
		Network:             NetworkGanache,
		RPCURL:              os.Getenv(EnvRPCURL),
		PrivateKey:          os.Getenv(EnvPrivateKey),
		FeeRecipientAddress: os.Getenv(EnvFeeRecipientAddress),
		StorePath:           os.Getenv(EnvStorePath),
		LogLevel:            getEnv(EnvLogLevel, "info"),
	}

	if network := os.Getenv(EnvNetwork); network != "" {
		n, err := ParseNetwork(network)
		if err != nil {
			return ClientConfig{}, err
		}
		cfg.Network = n
	}

	if exchange := os.Getenv(EnvExchangeAddress); exchange != "" {
		contracts, err := ContractsFor(cfg.Network)
		if err != nil {
			return ClientConfig{}, err
		}
		contracts.Exchange = exchange
		cfg.Contracts = &contracts
	}

	if ttl := os.Getenv(EnvOrderTTLSeconds); ttl != "" {
		secs, err := strconv.Atoi(ttl)
		if err != nil || secs < 0 {
			return ClientConfig{}, &InvalidParamError{Message: fmt.Sprintf("%s must be a non-negative integer, got %q", EnvOrderTTLSeconds, ttl)}
		}
		cfg.OrderTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

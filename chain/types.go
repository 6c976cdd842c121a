package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// orderTupleJSON is the Exchange contract's Order struct.
const orderTupleJSON = `{
	"name": "order",
	"type": "tuple",
	"components": [
		{"name": "makerAddress", "type": "address"},
		{"name": "takerAddress", "type": "address"},
		{"name": "feeRecipientAddress", "type": "address"},
		{"name": "senderAddress", "type": "address"},
		{"name": "makerAssetAmount", "type": "uint256"},
		{"name": "takerAssetAmount", "type": "uint256"},
		{"name": "makerFee", "type": "uint256"},
		{"name": "takerFee", "type": "uint256"},
		{"name": "expirationTimeSeconds", "type": "uint256"},
		{"name": "salt", "type": "uint256"},
		{"name": "makerAssetData", "type": "bytes"},
		{"name": "takerAssetData", "type": "bytes"}
	]
}`

// Exchange v2 ABI JSON for fillOrder, cancelOrder and getOrderInfo
const exchangeABIJSON = `[
	{
		"constant": false,
		"inputs": [
			` + orderTupleJSON + `,
			{"name": "takerAssetFillAmount", "type": "uint256"},
			{"name": "signature", "type": "bytes"}
		],
		"name": "fillOrder",
		"outputs": [
			{
				"name": "fillResults",
				"type": "tuple",
				"components": [
					{"name": "makerAssetFilledAmount", "type": "uint256"},
					{"name": "takerAssetFilledAmount", "type": "uint256"},
					{"name": "makerFeePaid", "type": "uint256"},
					{"name": "takerFeePaid", "type": "uint256"}
				]
			}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [` + orderTupleJSON + `],
		"name": "cancelOrder",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [` + orderTupleJSON + `],
		"name": "getOrderInfo",
		"outputs": [
			{
				"name": "orderInfo",
				"type": "tuple",
				"components": [
					{"name": "orderStatus", "type": "uint8"},
					{"name": "orderHash", "type": "bytes32"},
					{"name": "orderTakerAssetFilledAmount", "type": "uint256"}
				]
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Asset proxy interface used to build and parse asset data
const assetProxyABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "tokenContract", "type": "address"}
		],
		"name": "ERC20Token",
		"outputs": [],
		"stateMutability": "pure",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "tokenContract", "type": "address"},
			{"name": "tokenId", "type": "uint256"}
		],
		"name": "ERC721Token",
		"outputs": [],
		"stateMutability": "pure",
		"type": "function"
	}
]`

// ERC20 ABI JSON for decimals
const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var (
	exchangeABI   = mustParseABI("Exchange", exchangeABIJSON)
	assetProxyABI = mustParseABI("AssetProxy", assetProxyABIJSON)
	erc20ABI      = mustParseABI("ERC20", erc20ABIJSON)
)

// GetExchangeABI returns the parsed Exchange ABI
func GetExchangeABI() abi.ABI {
	return exchangeABI
}

// GetAssetProxyABI returns the parsed asset proxy ABI
func GetAssetProxyABI() abi.ABI {
	return assetProxyABI
}

// GetERC20ABI returns the parsed ERC20 ABI
func GetERC20ABI() abi.ABI {
	return erc20ABI
}

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("failed to parse " + name + " ABI: " + err.Error())
	}
	return parsed
}

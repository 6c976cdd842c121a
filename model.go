package zeroex

import "time"

// OrderParams describes an ERC20/ERC20 order in whole-token amounts.
type OrderParams struct {
	// MakerAddress defaults to the address of the configured private key
	MakerAddress string
	TakerAddress  string // Optional: null address lets anyone fill
	SenderAddress string // Optional

	MakerToken  string // ERC20 token the maker sells
	TakerToken  string // ERC20 token the maker buys
	MakerAmount string // Decimal amount of MakerToken, e.g. "1.5"
	TakerAmount string // Decimal amount of TakerToken

	MakerFee string // Optional: ZRX base units
	TakerFee string // Optional: ZRX base units

	Expiration time.Time // Optional: defaults to now + OrderTTL
	Salt       string    // Optional: random 256-bit salt when empty

	// SortByAsk makes the order sort by ask price in the order store
	SortByAsk bool
}

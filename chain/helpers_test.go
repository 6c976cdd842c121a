package chain

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Accounts and contracts of the 0x Ganache snapshot.
const (
	ganacheExchange     = "0x48bacb9266a570d521063ef5dd96e61686dbe788"
	ganacheMaker        = "0x5409ed021d9299bf6814279a6a1411a7e866a631"
	ganacheMakerKey     = "0xf2f48ee19680706196e2e339e5da3491186e0c4c5030670656b0e0164837257d"
	ganacheFeeRecipient = "0x6ecbe1db9ef729cbe972c83fb886247691fb6beb"
	ganacheZRX          = "0x871dd7c2b4b25e1aa18728e9d5f2af4c4e431f5c"
	ganacheWETH         = "0x0b1ba0af832d7c05fd64161e0db78e85978e8082"

	zrxAssetData  = "0xf47261b0000000000000000000000000871dd7c2b4b25e1aa18728e9d5f2af4c4e431f5c"
	wethAssetData = "0xf47261b00000000000000000000000000b1ba0af832d7c05fd64161e0db78e85978e8082"

	nullOrderHash    = "0x6b27c6de6a54105c13cd696318397648112845ca31622234a26407c84df7e5a0"
	ganacheOrderHash = "0xc5a82665584e3a57b036ef6f9d7af7504be03206ee45df970b11810d9206967e"
)

func ganacheFields() OrderFields {
	return OrderFields{
		MakerAddress:          ganacheMaker,
		FeeRecipientAddress:   ganacheFeeRecipient,
		ExchangeAddress:       ganacheExchange,
		MakerAssetAmount:      "1000000000000000000",
		TakerAssetAmount:      "500000000000000000",
		Salt:                  "12345",
		ExpirationTimeSeconds: "1600000000",
		MakerAssetData:        zrxAssetData,
		TakerAssetData:        wethAssetData,
		CreatedAt:             time.Unix(1599999000, 0),
	}
}

func ganacheOrder(t *testing.T) *SignedOrder {
	t.Helper()
	o, err := NewSignedOrder(ganacheFields())
	require.NoError(t, err)
	return o
}

func bigFromHex(t *testing.T, s string) *big.Int {
	t.Helper()
	n, ok := new(big.Int).SetString(s, 16)
	require.True(t, ok, s)
	return n
}

// Example usage of the 0x order SDK: build, sign, store and encode an order
// on the 0x Ganache snapshot without sending anything to the chain.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	zeroex "github.com/kaifufi/zeroex-order-sdk-go"
	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

// Well-known private key of the first Ganache snapshot account
const ganacheKey = "0xf2f48ee19680706196e2e339e5da3491186e0c4c5030670656b0e0164837257d"

func main() {
	config, err := zeroex.LoadConfigFromEnv("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if config.PrivateKey == "" {
		config.PrivateKey = ganacheKey
	}
	if config.StorePath == "" {
		config.StorePath = filepath.Join(os.TempDir(), "zeroex-orders")
	}

	client, err := zeroex.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	contracts := client.Contracts()

	// Sell 1 ZRX for 0.5 WETH
	fmt.Println("Preparing order...")
	order, err := client.PrepareOrder(ctx, zeroex.OrderParams{
		MakerToken:  contracts.ZRXToken,
		TakerToken:  contracts.EtherToken,
		MakerAmount: "1",
		TakerAmount: "0.5",
		Expiration:  time.Now().Add(time.Hour),
	})
	if err != nil {
		log.Fatalf("Failed to prepare order: %v", err)
	}
	fmt.Printf("Order: %s\n", order)
	fmt.Printf("Bid: %s Ask: %s\n", order.BidPrice(), order.AskPrice())

	if err := order.VerifySignature(); err != nil {
		log.Fatalf("Signature does not verify: %v", err)
	}

	// Storage form, as it would be sent to a relayer
	storage, err := json.MarshalIndent(order.ToStorage(chain.WireOptions{IncludeHash: true, IncludeSignature: true}), "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal order: %v", err)
	}
	fmt.Printf("\nStorage form:\n%s\n", storage)

	// Contract-call form
	fmt.Println("\nContract-call form:")
	for key, value := range order.ToWire(chain.WireModeContractCall, chain.WireOptions{IncludeHash: true, IncludeSignature: true}) {
		if b, ok := value.([]byte); ok {
			value = hexutil.Encode(b)
		}
		fmt.Printf("  %s: %v\n", key, value)
	}

	// Fill half of the order
	calldata, err := client.FillOrderCalldata(ctx, order, "0.25")
	if err != nil {
		log.Printf("Failed to encode fillOrder: %v", err)
	} else {
		fmt.Printf("\nfillOrder calldata: %s\n", hexutil.Encode(calldata))
	}

	// On-chain status needs ZEROEX_RPC_URL
	info, err := client.GetOrderInfo(ctx, order)
	if err != nil {
		log.Printf("Failed to get order info: %v", err)
	} else {
		fmt.Printf("Order info: %s\n", info)
	}

	// Orders stored so far, best bid first
	orders, err := client.SortedOrders(10)
	if err != nil {
		log.Printf("Failed to list orders: %v", err)
	} else {
		fmt.Printf("\nStored orders: %d\n", len(orders))
		for _, o := range orders {
			fmt.Printf("  %s bid=%s\n", o.Hash().Hex(), o.BidPrice())
		}
	}
}

package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP712 Domain constants of the 0x v2 exchange
const (
	EIP712DomainName    = "0x Protocol"
	EIP712DomainVersion = "2"
)

// EIP191Header prefixes every typed-data digest.
var EIP191Header = []byte{0x19, 0x01}

// Pre-computed type hashes using keccak256
var (
	// EIP712Domain(string name,string version,address verifyingContract)
	EIP712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,address verifyingContract)",
	))

	OrderTypeHash = crypto.Keccak256Hash([]byte(
		"Order(" +
			"address makerAddress," +
			"address takerAddress," +
			"address feeRecipientAddress," +
			"address senderAddress," +
			"uint256 makerAssetAmount," +
			"uint256 takerAssetAmount," +
			"uint256 makerFee," +
			"uint256 takerFee," +
			"uint256 expirationTimeSeconds," +
			"uint256 salt," +
			"bytes makerAssetData," +
			"bytes takerAssetData" +
			")",
	))
)

var (
	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
)

// EIP712Domain represents the EIP712 domain separator data
type EIP712Domain struct {
	Name              string
	Version           string
	VerifyingContract common.Address
}

// NewEIP712Domain creates the 0x domain for the given exchange contract
func NewEIP712Domain(verifyingContract common.Address) *EIP712Domain {
	return &EIP712Domain{
		Name:              EIP712DomainName,
		Version:           EIP712DomainVersion,
		VerifyingContract: verifyingContract,
	}
}

// Hash computes the EIP712 domain separator hash
func (d *EIP712Domain) Hash() common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: addressType}, // verifyingContract
	}

	encoded, err := arguments.Pack(
		EIP712DomainTypeHash,
		crypto.Keccak256Hash([]byte(d.Name)),
		crypto.Keccak256Hash([]byte(d.Version)),
		d.VerifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// OrderTypedData is the hashed view of an order. Amounts must be non-nil
// and fit in 256 bits.
type OrderTypedData struct {
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

// Hash computes the struct hash for the order
func (o *OrderTypedData) Hash() common.Hash {
	arguments := abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // makerAddress
		{Type: addressType}, // takerAddress
		{Type: addressType}, // feeRecipientAddress
		{Type: addressType}, // senderAddress
		{Type: uint256Type}, // makerAssetAmount
		{Type: uint256Type}, // takerAssetAmount
		{Type: uint256Type}, // makerFee
		{Type: uint256Type}, // takerFee
		{Type: uint256Type}, // expirationTimeSeconds
		{Type: uint256Type}, // salt
		{Type: bytes32Type}, // keccak256(makerAssetData)
		{Type: bytes32Type}, // keccak256(takerAssetData)
	}

	encoded, err := arguments.Pack(
		OrderTypeHash,
		o.MakerAddress,
		o.TakerAddress,
		o.FeeRecipientAddress,
		o.SenderAddress,
		o.MakerAssetAmount,
		o.TakerAssetAmount,
		o.MakerFee,
		o.TakerFee,
		o.ExpirationTimeSeconds,
		o.Salt,
		crypto.Keccak256Hash(o.MakerAssetData),
		crypto.Keccak256Hash(o.TakerAssetData),
	)
	if err != nil {
		panic("failed to encode order struct: " + err.Error())
	}

	return crypto.Keccak256Hash(encoded)
}

// CreateOrderSignHash creates the final EIP712 hash to be signed
// keccak256("\x19\x01" ++ domainSeparator ++ structHash)
func CreateOrderSignHash(domain *EIP712Domain, order *OrderTypedData) common.Hash {
	domainSeparator := domain.Hash()
	structHash := order.Hash()

	data := make([]byte, 0, len(EIP191Header)+32+32)
	data = append(data, EIP191Header...)
	data = append(data, domainSeparator.Bytes()...)
	data = append(data, structHash.Bytes()...)

	return crypto.Keccak256Hash(data)
}

// HashOrder returns the 0x order hash of order on the given exchange.
func HashOrder(exchange common.Address, order *OrderTypedData) common.Hash {
	return CreateOrderSignHash(NewEIP712Domain(exchange), order)
}

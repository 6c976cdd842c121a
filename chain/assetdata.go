package chain

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Asset proxy ids, the first four bytes of asset data
var (
	ERC20ProxyID  = hexutil.MustDecode("0xf47261b0")
	ERC721ProxyID = hexutil.MustDecode("0x02571792")
)

// AssetData is decoded asset data. TokenID is nil for ERC20 assets.
type AssetData struct {
	ProxyID      []byte
	TokenAddress common.Address
	TokenID      *big.Int
}

// EncodeERC20AssetData returns the asset data for an ERC20 token
func EncodeERC20AssetData(token common.Address) ([]byte, error) {
	data, err := assetProxyABI.Pack("ERC20Token", token)
	if err != nil {
		return nil, fmt.Errorf("failed to pack ERC20 asset data: %w", err)
	}
	return data, nil
}

// EncodeERC721AssetData returns the asset data for one ERC721 token
func EncodeERC721AssetData(token common.Address, tokenID *big.Int) ([]byte, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return nil, &ValidationError{Field: "tokenId", Value: tokenID, Err: ErrInvalidAmount}
	}
	data, err := assetProxyABI.Pack("ERC721Token", token, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to pack ERC721 asset data: %w", err)
	}
	return data, nil
}

// DecodeAssetData parses ERC20 or ERC721 asset data
func DecodeAssetData(data []byte) (*AssetData, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: asset data too short", ErrInvalidHex)
	}
	method, err := assetProxyABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown asset proxy id %s: %w", hexutil.Encode(data[:4]), err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s asset data: %w", method.Name, err)
	}

	asset := &AssetData{
		ProxyID:      cloneBytes(data[:4]),
		TokenAddress: args[0].(common.Address),
	}
	if bytes.Equal(asset.ProxyID, ERC721ProxyID) {
		asset.TokenID = args[1].(*big.Int)
	}
	return asset, nil
}

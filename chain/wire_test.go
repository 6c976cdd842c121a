package chain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedGanacheOrder(t *testing.T) *SignedOrder {
	t.Helper()
	o := ganacheOrder(t)
	signer, err := NewKeySigner(ganacheMakerKey)
	require.NoError(t, err)
	require.NoError(t, o.Sign(context.Background(), signer))
	return o
}

func TestToWireContractCall(t *testing.T) {
	o := signedGanacheOrder(t)
	doc := o.ToWire(WireModeContractCall, WireOptions{IncludeHash: true, IncludeSignature: true})

	assert.Equal(t, "0x5409ED021D9299bf6814279A6A1411A7e866A631", doc[FieldMakerAddress])
	assert.Equal(t, "0x6Ecbe1DB9EF729CBe972C83Fb886247691Fb6beb", doc[FieldFeeRecipientAddress])
	assert.Equal(t, NullAddress.Hex(), doc[FieldTakerAddress])
	assert.NotContains(t, doc, FieldExchangeAddress)

	amount, ok := doc[FieldMakerAssetAmount].(*big.Int)
	require.True(t, ok)
	assert.Equal(t, "1000000000000000000", amount.String())
	expiration, ok := doc[FieldExpirationTimeSeconds].(*big.Int)
	require.True(t, ok)
	assert.Equal(t, int64(1600000000), expiration.Int64())

	assetData, ok := doc[FieldMakerAssetData].([]byte)
	require.True(t, ok)
	assert.Equal(t, zrxAssetData, hexutil.Encode(assetData))

	hash, ok := doc[FieldHash].([]byte)
	require.True(t, ok)
	assert.Equal(t, ganacheOrderHash, hexutil.Encode(hash))

	sig, ok := doc[FieldSignature].([]byte)
	require.True(t, ok)
	assert.Len(t, sig, 66)
	assert.Equal(t, byte(SignatureTypeEthSign), sig[65])
	assert.Equal(t, o.Signature(), hexutil.Encode(sig))

	include := true
	doc = o.ToWire(WireModeContractCall, WireOptions{IncludeExchangeAddress: &include})
	assert.Equal(t, "0x48BaCB9266a570d521063EF5dD96e61686DbE788", doc[FieldExchangeAddress])
	assert.NotContains(t, doc, FieldHash)
	assert.NotContains(t, doc, FieldSignature)
}

func TestToWireStorageDefaults(t *testing.T) {
	o := ganacheOrder(t)
	doc := o.ToWire(WireModeStorage, DefaultWireOptions())

	assert.Equal(t, map[string]interface{}{
		FieldMakerAddress:          ganacheMaker,
		FieldTakerAddress:          "0x0000000000000000000000000000000000000000",
		FieldFeeRecipientAddress:   ganacheFeeRecipient,
		FieldSenderAddress:         "0x0000000000000000000000000000000000000000",
		FieldExchangeAddress:       ganacheExchange,
		FieldMakerAssetAmount:      "1000000000000000000",
		FieldTakerAssetAmount:      "500000000000000000",
		FieldMakerFee:              "0",
		FieldTakerFee:              "0",
		FieldSalt:                  "12345",
		FieldExpirationTimeSeconds: "1600000000",
		FieldMakerAssetData:        zrxAssetData,
		FieldTakerAssetData:        wethAssetData,
	}, doc)

	exclude := false
	doc = o.ToWire(WireModeStorage, WireOptions{IncludeHash: true, IncludeExchangeAddress: &exclude})
	assert.NotContains(t, doc, FieldExchangeAddress)
	assert.Equal(t, ganacheOrderHash, doc[FieldHash])
}

func TestStorageOrderJSON(t *testing.T) {
	o := signedGanacheOrder(t)
	raw, err := json.Marshal(o.ToStorage(WireOptions{IncludeSignature: true}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"signature":"0x1`)
	assert.NotContains(t, string(raw), `"hash"`)

	var s StorageOrder
	require.NoError(t, json.Unmarshal(raw, &s))
	back, err := FromStorage(s, FromWireOptions{ValidateSchema: true, ExpectSignature: true})
	require.NoError(t, err)
	assert.Equal(t, o.Hash(), back.Hash())
	assert.Equal(t, o.Signature(), back.Signature())
	require.NoError(t, back.VerifySignature())
}

func TestFromWireRoundTrip(t *testing.T) {
	o := signedGanacheOrder(t)
	createdAt := time.Unix(1599999500, 0)

	for _, mode := range []WireMode{WireModeStorage, WireModeContractCall} {
		t.Run(mode.String(), func(t *testing.T) {
			doc := o.ToWire(mode, WireOptions{IncludeHash: true, IncludeSignature: true})
			back, err := FromWire(doc, FromWireOptions{
				ValidateSchema:  mode == WireModeStorage,
				ExpectSignature: true,
				ExchangeAddress: common.HexToAddress(ganacheExchange),
				CreatedAt:       createdAt,
			})
			require.NoError(t, err)

			assert.Equal(t, ganacheOrderHash, back.Hash().Hex())
			assert.Equal(t, o.Signature(), back.Signature())
			assert.Equal(t, OrderStateSigned, back.State())
			assert.Equal(t, createdAt, back.CreatedAt())
			assert.Equal(t, o.ToStorage(DefaultWireOptions()), back.ToStorage(DefaultWireOptions()))
		})
	}
}

func TestFromWireWithoutSignature(t *testing.T) {
	o := signedGanacheOrder(t)
	back, err := FromWire(o.ToWire(WireModeStorage, DefaultWireOptions()), FromWireOptions{})
	require.NoError(t, err)
	assert.Empty(t, back.Signature())
	assert.Equal(t, OrderStateHashed, back.State())
}

func TestFromWireMissingField(t *testing.T) {
	doc := ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	delete(doc, FieldSalt)

	_, err := FromWire(doc, FromWireOptions{})
	require.ErrorIs(t, err, ErrMissingField)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldSalt, verr.Field)

	doc = ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	_, err = FromWire(doc, FromWireOptions{ExpectSignature: true})
	assert.ErrorIs(t, err, ErrMissingField)

	doc = ganacheOrder(t).ToWire(WireModeContractCall, DefaultWireOptions())
	_, err = FromWire(doc, FromWireOptions{})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldExchangeAddress, verr.Field)
}

func TestFromWireHashMismatch(t *testing.T) {
	doc := ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	doc[FieldHash] = nullOrderHash

	_, err := FromWire(doc, FromWireOptions{})
	assert.ErrorIs(t, err, ErrHashMismatch)

	doc[FieldHash] = strings.ToUpper(ganacheOrderHash[2:])
	_, err = FromWire(doc, FromWireOptions{})
	assert.NoError(t, err)
}

func TestFromWireSchemaError(t *testing.T) {
	doc := ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	doc[FieldMakerAddress] = "0x12"
	doc[FieldSalt] = "-3"

	_, err := FromWire(doc, FromWireOptions{ValidateSchema: true})
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, OrderSchema, serr.Schema)
	assert.Equal(t, []string{FieldMakerAddress, FieldSalt}, serr.Fields)
}

func TestFromWireBadValue(t *testing.T) {
	doc := ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	doc[FieldMakerFee] = "-1"
	_, err := FromWire(doc, FromWireOptions{})
	assert.ErrorIs(t, err, ErrNegativeAmount)

	doc = ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	doc[FieldSalt] = struct{}{}
	_, err = FromWire(doc, FromWireOptions{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldSalt, verr.Field)
}

func TestFromWireDecodedJSON(t *testing.T) {
	raw := `{
		"makerAddress": "0x5409ed021d9299bf6814279a6a1411a7e866a631",
		"takerAddress": "0x0000000000000000000000000000000000000000",
		"feeRecipientAddress": "0x6ecbe1db9ef729cbe972c83fb886247691fb6beb",
		"senderAddress": "0x0000000000000000000000000000000000000000",
		"exchangeAddress": "0x48bacb9266a570d521063ef5dd96e61686dbe788",
		"makerAssetAmount": "1000000000000000000",
		"takerAssetAmount": "500000000000000000",
		"makerFee": 0,
		"takerFee": 0,
		"salt": 12345,
		"expirationTimeSeconds": 1600000000,
		"makerAssetData": "0xf47261b0000000000000000000000000871dd7c2b4b25e1aa18728e9d5f2af4c4e431f5c",
		"takerAssetData": "0xf47261b00000000000000000000000000b1ba0af832d7c05fd64161e0db78e85978e8082"
	}`

	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &plain))
	o, err := FromWire(plain, FromWireOptions{ValidateSchema: true})
	require.NoError(t, err)
	assert.Equal(t, ganacheOrderHash, o.Hash().Hex())

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var numbers map[string]interface{}
	require.NoError(t, dec.Decode(&numbers))
	o, err = FromWire(numbers, FromWireOptions{ValidateSchema: true})
	require.NoError(t, err)
	assert.Equal(t, ganacheOrderHash, o.Hash().Hex())
}

func TestFromWireRejectsInexactFloats(t *testing.T) {
	doc := ganacheOrder(t).ToWire(WireModeStorage, WireOptions{})
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	raw = []byte(strings.Replace(string(raw), `"salt":"12345"`, `"salt":12345678901234567890123`, 1))

	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &plain))
	_, err = FromWire(plain, FromWireOptions{})
	assert.ErrorIs(t, err, ErrImpreciseNumber)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldSalt, verr.Field)

	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var numbers map[string]interface{}
	require.NoError(t, dec.Decode(&numbers))
	o, err := FromWire(numbers, FromWireOptions{})
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567890123", o.Salt().String())

	for _, v := range []float64{1.5, 1 << 53, -1 << 60} {
		doc := ganacheOrder(t).ToWire(WireModeStorage, WireOptions{})
		doc[FieldMakerFee] = v
		_, err := FromWire(doc, FromWireOptions{})
		assert.ErrorIs(t, err, ErrImpreciseNumber, "%v", v)
	}

	doc[FieldMakerFee] = float64(1<<53 - 1)
	o, err = FromWire(doc, FromWireOptions{})
	require.NoError(t, err)
	assert.Equal(t, "9007199254740991", o.MakerFee().String())
}

func TestToWireContractCallFixedSignature(t *testing.T) {
	r := new(big.Int).SetBytes(common.FromHex(strings.Repeat("11", 32)))
	s := new(big.Int).SetBytes(common.FromHex(strings.Repeat("22", 32)))
	stub := SignerFunc(func(_ context.Context, _ common.Hash) (ECSignature, error) {
		return ECSignature{V: 28, R: r, S: s}, nil
	})

	o := ganacheOrder(t)
	require.NoError(t, o.Sign(context.Background(), stub))

	packed := "0x1c" + strings.Repeat("11", 32) + strings.Repeat("22", 32) + "03"
	assert.Equal(t, packed, o.Signature())

	doc := o.ToWire(WireModeContractCall, WireOptions{IncludeHash: true, IncludeSignature: true})
	sig, ok := doc[FieldSignature].([]byte)
	require.True(t, ok)
	assert.Equal(t, packed, hexutil.Encode(sig))

	hash, ok := doc[FieldHash].([]byte)
	require.True(t, ok)
	assert.Equal(t, ganacheOrderHash, hexutil.Encode(hash))
}

func TestFromWireCustomValidator(t *testing.T) {
	rejected := errors.New("rejected by policy")
	var schemas []string
	v := validatorFunc(func(doc map[string]interface{}, schema string) error {
		schemas = append(schemas, schema)
		if doc[FieldTakerAddress] == "0x0000000000000000000000000000000000000000" {
			return rejected
		}
		return nil
	})

	o := signedGanacheOrder(t)
	_, err := FromWire(o.ToWire(WireModeStorage, DefaultWireOptions()), FromWireOptions{
		ValidateSchema:  true,
		ExpectSignature: true,
		Validator:       v,
	})
	assert.Equal(t, rejected, err)
	assert.Equal(t, []string{SignedOrderSchema}, schemas)
}

func TestContractOrderTuple(t *testing.T) {
	o := ganacheOrder(t)
	c := o.ContractOrder()
	assert.Equal(t, o.MakerAddress(), c.MakerAddress)
	assert.Equal(t, o.Salt(), c.Salt)
	assert.Equal(t, o.TakerAssetData(), c.TakerAssetData)

	c.Salt.SetInt64(1)
	assert.Equal(t, int64(12345), o.Salt().Int64())
}

func TestWireModeString(t *testing.T) {
	assert.Equal(t, "storage", WireModeStorage.String())
	assert.Equal(t, "on-chain-call", WireModeContractCall.String())
	assert.Equal(t, "WireMode(7)", WireMode(7).String())
}

type validatorFunc func(doc map[string]interface{}, schema string) error

func (f validatorFunc) Validate(doc map[string]interface{}, schema string) error {
	return f(doc, schema)
}

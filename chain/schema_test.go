package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentValidatorAcceptsStorageDocuments(t *testing.T) {
	v := NewDocumentValidator()
	o := signedGanacheOrder(t)

	assert.NoError(t, v.Validate(o.ToWire(WireModeStorage, DefaultWireOptions()), OrderSchema))
	assert.NoError(t, v.Validate(o.ToWire(WireModeStorage, DefaultWireOptions()), SignedOrderSchema))

	empty, err := NewSignedOrder(OrderFields{})
	require.NoError(t, err)
	assert.NoError(t, v.Validate(empty.ToWire(WireModeStorage, DefaultWireOptions()), OrderSchema))
}

func TestDocumentValidatorMissingKeys(t *testing.T) {
	v := NewDocumentValidator()
	doc := ganacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
	delete(doc, FieldTakerFee)
	doc[FieldMakerAddress] = nil

	err := v.Validate(doc, SignedOrderSchema)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, SignedOrderSchema, serr.Schema)
	assert.Equal(t, []string{FieldMakerAddress, FieldSignature, FieldTakerFee}, serr.Fields)
	assert.Contains(t, err.Error(), "takerFee")
}

func TestDocumentValidatorRules(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{FieldTakerAddress, "0x5409ed021d9299bf6814279a6a1411a7e866a63"},
		{FieldFeeRecipientAddress, "5409ed021d9299bf6814279a6a1411a7e866a631"},
		{FieldMakerAssetAmount, "1.5"},
		{FieldExpirationTimeSeconds, "soon"},
		{FieldMakerAssetData, "0xf47"},
		{FieldTakerAssetData, "f47261b0"},
		{FieldSignature, "0x"},
		{FieldSignature, "0xzz"},
	}

	v := NewDocumentValidator()
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			doc := signedGanacheOrder(t).ToWire(WireModeStorage, DefaultWireOptions())
			doc[tt.field] = tt.value

			err := v.Validate(doc, SignedOrderSchema)
			var serr *SchemaError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, []string{tt.field}, serr.Fields)
		})
	}
}

func TestDocumentValidatorUnknownSchema(t *testing.T) {
	err := NewDocumentValidator().Validate(map[string]interface{}{}, "/tradeSchema")
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, err.Error(), "unknown schema")
}

package chain

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/go-playground/validator/v10"
)

// Schema names understood by DocumentValidator
const (
	OrderSchema       = "/orderSchema"
	SignedOrderSchema = "/signedOrderSchema"
)

// SchemaValidator checks a wire document against a named schema and returns
// a *SchemaError when it does not conform.
type SchemaValidator interface {
	Validate(doc map[string]interface{}, schema string) error
}

var (
	hexBytesPattern  = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
	hexStringPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
)

// DocumentValidator implements SchemaValidator for storage-mode documents
// with go-playground/validator rules.
type DocumentValidator struct {
	validate *validator.Validate
	schemas  map[string]map[string]interface{}
}

// NewDocumentValidator returns a validator that knows OrderSchema and
// SignedOrderSchema.
func NewDocumentValidator() *DocumentValidator {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("hex_bytes", func(fl validator.FieldLevel) bool {
		return hexBytesPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("hex_string", func(fl validator.FieldLevel) bool {
		return hexStringPattern.MatchString(fl.Field().String())
	})

	order := map[string]interface{}{
		FieldMakerAddress:          "required,eth_addr",
		FieldTakerAddress:          "required,eth_addr",
		FieldFeeRecipientAddress:   "required,eth_addr",
		FieldSenderAddress:         "required,eth_addr",
		FieldExchangeAddress:       "required,eth_addr",
		FieldMakerAssetAmount:      "required,number",
		FieldTakerAssetAmount:      "required,number",
		FieldMakerFee:              "required,number",
		FieldTakerFee:              "required,number",
		FieldSalt:                  "required,number",
		FieldExpirationTimeSeconds: "required,number",
		FieldMakerAssetData:        "required,hex_bytes",
		FieldTakerAssetData:        "required,hex_bytes",
	}
	signed := make(map[string]interface{}, len(order)+1)
	for k, rule := range order {
		signed[k] = rule
	}
	signed[FieldSignature] = "required,hex_string"

	return &DocumentValidator{
		validate: v,
		schemas: map[string]map[string]interface{}{
			OrderSchema:       order,
			SignedOrderSchema: signed,
		},
	}
}

func (d *DocumentValidator) Validate(doc map[string]interface{}, schema string) error {
	rules, ok := d.schemas[schema]
	if !ok {
		return &SchemaError{Schema: schema, Err: fmt.Errorf("unknown schema")}
	}

	var failed []string
	for field := range rules {
		if v, ok := doc[field]; !ok || v == nil {
			failed = append(failed, field)
		}
	}
	if len(failed) == 0 {
		for field := range d.validate.ValidateMap(doc, rules) {
			failed = append(failed, field)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return &SchemaError{Schema: schema, Fields: failed}
	}
	return nil
}

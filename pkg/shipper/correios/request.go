package correios

import (
	"errors"
	"fmt"
)

const (
	fieldWeight        = "weight"
	fieldDeclaredValue = "declared value"
	fieldPackageFormat = "package format"
	fieldServiceCode   = "service code"
)

// fieldOrder keeps Err() output deterministic.
var fieldOrder = []string{fieldWeight, fieldDeclaredValue, fieldPackageFormat, fieldServiceCode}

// QuoteRequest accumulates the normalized fields of a single quote.
//
// Every setter normalizes its input before storing it and returns the
// request so calls can be chained. Setters that validate (weight, declared
// value, package format, service code) keep the previous value when the
// input is rejected and record the error, which is reported by Err until
// the field is set successfully. A QuoteRequest must not be mutated from
// more than one goroutine.
type QuoteRequest struct {
	originPostalCode      string
	destinationPostalCode string
	weight                string
	height                string
	length                string
	width                 string
	handDelivery          bool
	receiptNotice         bool
	packageFormat         PackageFormat
	serviceCode           ServiceCode
	declaredValue         string

	errs map[string]error
}

// NewQuoteRequest returns a request with the provider defaults: box format,
// no extra services and a declared value of 0.00.
func NewQuoteRequest() *QuoteRequest {
	return &QuoteRequest{
		packageFormat: FormatBox,
		declaredValue: "0.00",
	}
}

// SetOriginPostalCode sets the origin CEP.
func (r *QuoteRequest) SetOriginPostalCode(cep string) *QuoteRequest {
	r.originPostalCode = DigitsOnly(cep)
	return r
}

// OriginPostalCode returns the origin CEP, digits only.
func (r *QuoteRequest) OriginPostalCode() string {
	return r.originPostalCode
}

// SetDestinationPostalCode sets the destination CEP.
func (r *QuoteRequest) SetDestinationPostalCode(cep string) *QuoteRequest {
	r.destinationPostalCode = DigitsOnly(cep)
	return r
}

// DestinationPostalCode returns the destination CEP, digits only.
func (r *QuoteRequest) DestinationPostalCode() string {
	return r.destinationPostalCode
}

// SetWeight sets the weight in kilograms, stored with three decimals.
func (r *QuoteRequest) SetWeight(kg string) *QuoteRequest {
	v, err := FixedDecimal(kg, 3)
	if err != nil {
		err = fmt.Errorf("%s: %w", fieldWeight, err)
	}
	if r.record(fieldWeight, err) {
		r.weight = v
	}
	return r
}

// Weight returns the weight in kilograms, e.g. "1.100".
func (r *QuoteRequest) Weight() string {
	return r.weight
}

// SetHeight sets the height in whole centimetres.
func (r *QuoteRequest) SetHeight(cm string) *QuoteRequest {
	r.height = DigitsOnly(cm)
	return r
}

// Height returns the height in centimetres.
func (r *QuoteRequest) Height() string {
	return r.height
}

// SetLength sets the length in whole centimetres.
func (r *QuoteRequest) SetLength(cm string) *QuoteRequest {
	r.length = DigitsOnly(cm)
	return r
}

// Length returns the length in centimetres.
func (r *QuoteRequest) Length() string {
	return r.length
}

// SetWidth sets the width in whole centimetres.
func (r *QuoteRequest) SetWidth(cm string) *QuoteRequest {
	r.width = DigitsOnly(cm)
	return r
}

// Width returns the width in centimetres.
func (r *QuoteRequest) Width() string {
	return r.width
}

// SetHandDelivery requests delivery to the addressee only ("mão própria").
func (r *QuoteRequest) SetHandDelivery(on bool) *QuoteRequest {
	r.handDelivery = on
	return r
}

// HandDelivery reports whether hand delivery was requested.
func (r *QuoteRequest) HandDelivery() bool {
	return r.handDelivery
}

// SetReceiptNotice requests a proof of delivery ("aviso de recebimento").
func (r *QuoteRequest) SetReceiptNotice(on bool) *QuoteRequest {
	r.receiptNotice = on
	return r
}

// ReceiptNotice reports whether a receipt notice was requested.
func (r *QuoteRequest) ReceiptNotice() bool {
	return r.receiptNotice
}

// SetPackageFormat sets the packaging format from a wire code or name.
func (r *QuoteRequest) SetPackageFormat(value string) *QuoteRequest {
	f, err := ParsePackageFormat(value)
	if r.record(fieldPackageFormat, err) {
		r.packageFormat = f
	}
	return r
}

// PackageFormat returns the packaging format.
func (r *QuoteRequest) PackageFormat() PackageFormat {
	return r.packageFormat
}

// SetServiceCode sets the Correios service code.
func (r *QuoteRequest) SetServiceCode(value string) *QuoteRequest {
	s, err := ParseServiceCode(value)
	if r.record(fieldServiceCode, err) {
		r.serviceCode = s
	}
	return r
}

// ServiceCode returns the service code and whether one has been set.
func (r *QuoteRequest) ServiceCode() (ServiceCode, bool) {
	return r.serviceCode, r.serviceCode != 0
}

// SetDeclaredValue sets the declared value in reais, stored with two decimals.
func (r *QuoteRequest) SetDeclaredValue(brl string) *QuoteRequest {
	v, err := FixedDecimal(brl, 2)
	if err != nil {
		err = fmt.Errorf("%s: %w", fieldDeclaredValue, err)
	}
	if r.record(fieldDeclaredValue, err) {
		r.declaredValue = v
	}
	return r
}

// DeclaredValue returns the declared value, e.g. "102.10".
func (r *QuoteRequest) DeclaredValue() string {
	return r.declaredValue
}

// Err returns the validation errors recorded by setters that have not been
// cleared by a later successful assignment of the same field.
func (r *QuoteRequest) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.errs))
	for _, field := range fieldOrder {
		if err, ok := r.errs[field]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// record stores or clears the error for field and reports whether the
// assignment may proceed.
func (r *QuoteRequest) record(field string, err error) bool {
	if err != nil {
		if r.errs == nil {
			r.errs = make(map[string]error)
		}
		r.errs[field] = err
		return false
	}
	delete(r.errs, field)
	return true
}

func wireFlag(on bool) string {
	if on {
		return "S"
	}
	return "N"
}

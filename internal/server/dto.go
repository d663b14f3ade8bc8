package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tournevent/correios/pkg/shipper"
	"github.com/tournevent/correios/pkg/shipper/correios"
)

// ============================================================================
// GET /quote
// ============================================================================

type quoteResponse struct {
	RequestID              string `json:"request_id"`
	ServiceCode            string `json:"service_code"`
	ServiceName            string `json:"service_name"`
	Price                  string `json:"price"`
	DeliveryDays           int    `json:"delivery_days"`
	EstimatedDelivery      string `json:"estimated_delivery"`
	HandDeliverySurcharge  string `json:"hand_delivery_surcharge"`
	ReceiptNoticeSurcharge string `json:"receipt_notice_surcharge"`
	DeclaredValueSurcharge string `json:"declared_value_surcharge"`
	HomeDelivery           bool   `json:"home_delivery"`
	SaturdayDelivery       bool   `json:"saturday_delivery"`
	ErrorCode              string `json:"error_code"`
	ErrorMessage           string `json:"error_message,omitempty"`
}

type errorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"status,omitempty"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
}

func resultToDTO(res *correios.QuoteResult, service correios.ServiceCode, now time.Time) quoteResponse {
	return quoteResponse{
		ServiceCode:            res.ServiceCode,
		ServiceName:            service.Name(),
		Price:                  res.Price.StringFixed(2),
		DeliveryDays:           res.DeliveryDays,
		EstimatedDelivery:      now.AddDate(0, 0, res.DeliveryDays).Format(time.DateOnly),
		HandDeliverySurcharge:  res.HandDeliverySurcharge.StringFixed(2),
		ReceiptNoticeSurcharge: res.ReceiptNoticeSurcharge.StringFixed(2),
		DeclaredValueSurcharge: res.DeclaredValueSurcharge.StringFixed(2),
		HomeDelivery:           res.HomeDelivery,
		SaturdayDelivery:       res.SaturdayDelivery,
		ErrorCode:              res.ProviderErrorCode,
		ErrorMessage:           res.ProviderErrorMessage,
	}
}

// ============================================================================
// POST /rates
// ============================================================================

type ratesRequest struct {
	ShipperID   string          `json:"shipper_id"`
	Origin      *addressInput   `json:"origin"`
	Destination *addressInput   `json:"destination"`
	Packages    []*packageInput `json:"packages"`
	Options     *optionsInput   `json:"options"`
}

type addressInput struct {
	Name          string  `json:"name"`
	Line1         string  `json:"line1"`
	Line2         *string `json:"line2"`
	City          string  `json:"city"`
	StateCode     string  `json:"state_code"`
	PostalCode    string  `json:"postal_code"`
	CountryCode   *string `json:"country_code"`
	IsResidential *bool   `json:"is_residential"`
}

type packageInput struct {
	Length        string  `json:"length"`
	Width         string  `json:"width"`
	Height        string  `json:"height"`
	Weight        string  `json:"weight"`
	DimensionUnit *string `json:"dimension_unit"`
	WeightUnit    *string `json:"weight_unit"`
	PackageType   *string `json:"package_type"`
	DeclaredValue *string `json:"declared_value"`
	Currency      *string `json:"currency"`
}

type optionsInput struct {
	Carriers      []string `json:"carriers"`
	ServiceCodes  []string `json:"service_codes"`
	HandDelivery  *bool    `json:"hand_delivery"`
	ReceiptNotice *bool    `json:"receipt_notice"`
}

type ratesResponse struct {
	RequestID string         `json:"request_id"`
	Success   bool           `json:"success"`
	Quotes    []quoteDTO     `json:"quotes"`
	Errors    []carrierError `json:"errors,omitempty"`
}

type quoteDTO struct {
	QuoteID   string    `json:"quote_id"`
	Carrier   string    `json:"carrier"`
	Rates     []rateDTO `json:"rates"`
	Notices   []string  `json:"notices,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type rateDTO struct {
	RateID            string     `json:"rate_id"`
	Carrier           string     `json:"carrier"`
	ServiceCode       string     `json:"service_code"`
	ServiceName       string     `json:"service_name"`
	ServiceType       string     `json:"service_type"`
	BaseRate          moneyDTO   `json:"base_rate"`
	Surcharges        moneyDTO   `json:"surcharges"`
	TotalPrice        moneyDTO   `json:"total_price"`
	TransitDays       int        `json:"transit_days"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	HomeDelivery      bool       `json:"home_delivery"`
	SaturdayDelivery  bool       `json:"saturday_delivery"`
	Notice            string     `json:"notice,omitempty"`
}

type moneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type carrierError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (in *ratesRequest) toModel() (*shipper.QuoteRequest, error) {
	if in.Origin == nil || in.Destination == nil {
		return nil, errors.New("origin and destination are required")
	}
	if len(in.Packages) == 0 {
		return nil, errors.New("at least one package is required")
	}

	packages, err := packagesInputToModel(in.Packages)
	if err != nil {
		return nil, err
	}

	req := &shipper.QuoteRequest{
		ShipperID:   in.ShipperID,
		Origin:      addressInputToModel(in.Origin),
		Destination: addressInputToModel(in.Destination),
		Packages:    packages,
	}
	if in.Options != nil {
		req.Options = optionsInputToModel(in.Options)
	}
	return req, nil
}

func addressInputToModel(input *addressInput) shipper.Address {
	addr := shipper.Address{
		Name:       input.Name,
		Line1:      input.Line1,
		City:       input.City,
		StateCode:  input.StateCode,
		PostalCode: input.PostalCode,
	}
	if input.Line2 != nil {
		addr.Line2 = *input.Line2
	}
	if input.CountryCode != nil {
		addr.CountryCode = *input.CountryCode
	} else {
		addr.CountryCode = "BR"
	}
	if input.IsResidential != nil {
		addr.IsResidential = *input.IsResidential
	}
	return addr
}

func packagesInputToModel(inputs []*packageInput) ([]shipper.Package, error) {
	packages := make([]shipper.Package, len(inputs))
	for i, input := range inputs {
		if input == nil {
			return nil, fmt.Errorf("package %d: missing", i)
		}

		var pkg shipper.Package
		fields := []struct {
			name  string
			value string
			dst   *decimal.Decimal
		}{
			{"length", input.Length, &pkg.Length},
			{"width", input.Width, &pkg.Width},
			{"height", input.Height, &pkg.Height},
			{"weight", input.Weight, &pkg.Weight},
		}
		for _, f := range fields {
			d, err := parseDecimal(f.value)
			if err != nil {
				return nil, fmt.Errorf("package %d: %s: %w", i, f.name, err)
			}
			*f.dst = d
		}

		pkg.DimensionUnit = shipper.DimensionCM
		if input.DimensionUnit != nil {
			pkg.DimensionUnit = shipper.DimensionUnit(strings.ToLower(*input.DimensionUnit))
		}
		pkg.WeightUnit = shipper.WeightKG
		if input.WeightUnit != nil {
			pkg.WeightUnit = shipper.WeightUnit(strings.ToLower(*input.WeightUnit))
		}
		pkg.PackageType = shipper.PackageBox
		if input.PackageType != nil {
			pkg.PackageType = shipper.PackageType(strings.ToLower(*input.PackageType))
		}
		if input.DeclaredValue != nil {
			d, err := parseDecimal(*input.DeclaredValue)
			if err != nil {
				return nil, fmt.Errorf("package %d: declared_value: %w", i, err)
			}
			pkg.DeclaredValue = d
		}
		pkg.Currency = "BRL"
		if input.Currency != nil {
			pkg.Currency = *input.Currency
		}
		packages[i] = pkg
	}
	return packages, nil
}

func optionsInputToModel(input *optionsInput) shipper.ShippingOptions {
	opts := shipper.ShippingOptions{
		Carriers:     input.Carriers,
		ServiceCodes: input.ServiceCodes,
	}
	if input.HandDelivery != nil {
		opts.HandDelivery = *input.HandDelivery
	}
	if input.ReceiptNotice != nil {
		opts.ReceiptNotice = *input.ReceiptNotice
	}
	return opts
}

// parseDecimal reads a period-decimal amount; an empty string is zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func quoteToDTO(q *shipper.QuoteResponse) quoteDTO {
	rates := make([]rateDTO, len(q.Rates))
	for i := range q.Rates {
		rates[i] = rateToDTO(&q.Rates[i])
	}
	return quoteDTO{
		QuoteID:   q.QuoteID,
		Carrier:   q.Carrier,
		Rates:     rates,
		Notices:   q.Notices,
		ExpiresAt: q.ExpiresAt,
	}
}

func rateToDTO(rate *shipper.RateOption) rateDTO {
	return rateDTO{
		RateID:            rate.RateID,
		Carrier:           rate.Carrier,
		ServiceCode:       rate.ServiceCode,
		ServiceName:       rate.ServiceName,
		ServiceType:       string(rate.ServiceType),
		BaseRate:          moneyToDTO(rate.BaseRate),
		Surcharges:        moneyToDTO(rate.Surcharges),
		TotalPrice:        moneyToDTO(rate.TotalPrice),
		TransitDays:       rate.TransitDays,
		EstimatedDelivery: rate.EstimatedDelivery,
		ExpiresAt:         rate.ExpiresAt,
		HomeDelivery:      rate.HomeDelivery,
		SaturdayDelivery:  rate.SaturdayDelivery,
		Notice:            rate.Notice,
	}
}

func moneyToDTO(m shipper.Money) moneyDTO {
	return moneyDTO{
		Amount:   m.Amount.StringFixed(2),
		Currency: m.Currency,
	}
}

func errorsToDTO(errs []error) []carrierError {
	if len(errs) == 0 {
		return nil
	}
	result := make([]carrierError, len(errs))
	for i, err := range errs {
		result[i] = carrierError{
			Code:      "CARRIER_ERROR",
			Message:   err.Error(),
			Retryable: shipper.IsRetryable(err),
		}
		var serr *shipper.ShipperError
		if errors.As(err, &serr) {
			result[i].Code = serr.Code
		}
	}
	return result
}

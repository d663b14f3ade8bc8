package correios

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
)

// QuoteResult is the normalized calculator reply. Money fields are
// period-decimal; the provider's comma separator is converted on parsing.
//
// A well-formed reply can still carry a business error (ProviderErrorCode
// other than "0"); callers should check HasProviderError.
type QuoteResult struct {
	ServiceCode            string
	Price                  decimal.Decimal
	DeliveryDays           int
	HandDeliverySurcharge  decimal.Decimal
	ReceiptNoticeSurcharge decimal.Decimal
	DeclaredValueSurcharge decimal.Decimal
	HomeDelivery           bool
	SaturdayDelivery       bool
	ProviderErrorCode      string
	ProviderErrorMessage   string
}

// HasProviderError reports whether the reply carries a non-zero error code.
func (r *QuoteResult) HasProviderError() bool {
	return strings.TrimLeft(r.ProviderErrorCode, "0") != ""
}

var missingParameter = regexp.MustCompile(`(Missing parameter: [^.]+)\.`)

// ParseErrorBody builds the QuoteError for a non-200 reply. The body is not
// parsed as XML.
func ParseErrorBody(statusCode int, body []byte) *QuoteError {
	raw := string(body)
	msg := raw
	if m := missingParameter.FindStringSubmatch(raw); m != nil {
		msg = m[1]
	}
	return &QuoteError{
		StatusCode: statusCode,
		Message:    msg,
		Body:       raw,
	}
}

// ParseResponse decodes a 200 reply and extracts the first cServico entry.
// Any decoding failure is reported as ErrMalformedResponse.
func ParseResponse(body []byte) (*QuoteResult, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no cServico element", ErrMalformedResponse)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "cServico" {
			continue
		}

		var svc cServico
		if err := dec.DecodeElement(&svc, &start); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		return svc.toResult()
	}
}

func (s *cServico) toResult() (*QuoteResult, error) {
	var err error
	res := &QuoteResult{
		ServiceCode:          strings.TrimSpace(s.Codigo),
		HomeDelivery:         isYes(s.EntregaDomiciliar),
		SaturdayDelivery:     isYes(s.EntregaSabado),
		ProviderErrorCode:    strings.TrimSpace(s.Erro),
		ProviderErrorMessage: strings.TrimSpace(s.MsgErro),
	}

	if res.Price, err = moneyField("Valor", s.Valor); err != nil {
		return nil, err
	}
	if res.HandDeliverySurcharge, err = moneyField("ValorMaoPropria", s.ValorMaoPropria); err != nil {
		return nil, err
	}
	if res.ReceiptNoticeSurcharge, err = moneyField("ValorAvisoRecebimento", s.ValorAvisoRecebimento); err != nil {
		return nil, err
	}
	if res.DeclaredValueSurcharge, err = moneyField("ValorValorDeclarado", s.ValorValorDeclarado); err != nil {
		return nil, err
	}

	if days := strings.TrimSpace(s.PrazoEntrega); days != "" {
		if res.DeliveryDays, err = strconv.Atoi(days); err != nil {
			return nil, fmt.Errorf("%w: PrazoEntrega %q", ErrMalformedResponse, s.PrazoEntrega)
		}
	}

	return res, nil
}

func moneyField(name, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := parseDecimal(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", ErrMalformedResponse, name, value)
	}
	return d, nil
}

func isYes(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "S")
}

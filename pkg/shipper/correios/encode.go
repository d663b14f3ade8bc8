package correios

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the public Correios web service host.
	DefaultBaseURL = "http://ws.correios.com.br"

	calculatorPath = "/calculador/CalcPrecoPrazo.asmx/CalcPrecoPrazo"
)

// RequestTarget is a fully qualified GET request for the price/deadline calculator.
type RequestTarget struct {
	BaseURL string
	Path    string
	Query   url.Values
}

// URL returns the target with its percent-encoded query string.
func (t RequestTarget) URL() string {
	return t.BaseURL + t.Path + "?" + t.Query.Encode()
}

func (t RequestTarget) String() string {
	return t.URL()
}

// Encode derives the calculator request for r against baseURL (DefaultBaseURL
// when empty). It fails if r carries validation errors or has no service code.
func Encode(baseURL string, r *QuoteRequest) (RequestTarget, error) {
	if err := r.Err(); err != nil {
		return RequestTarget{}, err
	}
	service, ok := r.ServiceCode()
	if !ok {
		return RequestTarget{}, fmt.Errorf("%w: service code not set", ErrIncompleteRequest)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	format := r.PackageFormat()
	if format == 0 {
		format = FormatBox
	}
	declared := r.DeclaredValue()
	if declared == "" {
		declared = "0.00"
	}

	q := url.Values{}
	q.Set("nCdEmpresa", "")
	q.Set("sDsSenha", "")
	q.Set("nCdServico", service.String())
	q.Set("sCepOrigem", r.OriginPostalCode())
	q.Set("sCepDestino", r.DestinationPostalCode())
	q.Set("nVlPeso", r.Weight())
	q.Set("nCdFormato", format.Code())
	q.Set("nVlComprimento", r.Length())
	q.Set("nVlAltura", r.Height())
	q.Set("nVlLargura", r.Width())
	q.Set("nVlDiametro", "0")
	q.Set("sCdMaoPropria", wireFlag(r.HandDelivery()))
	q.Set("nVlValorDeclarado", declared)
	q.Set("sCdAvisoRecebimento", wireFlag(r.ReceiptNotice()))
	q.Set("StrRetorno", "xml")

	return RequestTarget{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Path:    calculatorPath,
		Query:   q,
	}, nil
}

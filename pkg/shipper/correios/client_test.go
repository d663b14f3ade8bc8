package correios_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/correios/pkg/shipper"
	"github.com/tournevent/correios/pkg/shipper/correios"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestClient(transport correios.Transport) *correios.Client {
	logger := otelzap.New(zap.NewNop())
	return correios.NewWithTransport(
		correios.Config{},
		transport,
		logger,
		nil,
	)
}

func reply(status int, body string) func(context.Context, correios.RequestTarget) (*correios.RawResponse, error) {
	return func(ctx context.Context, target correios.RequestTarget) (*correios.RawResponse, error) {
		return &correios.RawResponse{StatusCode: status, Body: []byte(body)}, nil
	}
}

func TestClient_Quote_Success(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = reply(http.StatusOK, pacReply)
	client := newTestClient(mockTransport)

	res, err := client.Quote(context.Background(), referenceRequest())

	require.NoError(t, err)
	assert.Equal(t, "41106", res.ServiceCode)
	assert.Equal(t, "10.50", res.Price.StringFixed(2))
	assert.Equal(t, 3, res.DeliveryDays)
	assert.True(t, res.HomeDelivery)
	assert.False(t, res.SaturdayDelivery)
	assert.False(t, res.HasProviderError())

	calls := mockTransport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, correios.DefaultBaseURL, calls[0].BaseURL)
	assert.Equal(t, "41106", calls[0].Query.Get("nCdServico"))
}

func TestClient_Quote_HTTPError(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = reply(http.StatusInternalServerError,
		"System.InvalidOperationException: Missing parameter: sCepOrigem.\r\n   at ...")
	client := newTestClient(mockTransport)

	res, err := client.Quote(context.Background(), referenceRequest())

	assert.Nil(t, res)
	var qerr *correios.QuoteError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, http.StatusInternalServerError, qerr.StatusCode)
	assert.Equal(t, "Missing parameter: sCepOrigem", qerr.Message)
	assert.False(t, errors.Is(err, correios.ErrMalformedResponse))
}

func TestClient_Quote_IncompleteRequestSkipsNetwork(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	client := newTestClient(mockTransport)

	req := correios.NewQuoteRequest().
		SetOriginPostalCode("88101000").
		SetDestinationPostalCode("88134400").
		SetWeight("1")

	_, err := client.Quote(context.Background(), req)

	assert.True(t, errors.Is(err, correios.ErrIncompleteRequest))
	assert.Empty(t, mockTransport.Calls())
}

func TestClient_Quote_InvalidFieldSkipsNetwork(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	client := newTestClient(mockTransport)

	_, err := client.Quote(context.Background(), referenceRequest().SetDeclaredValue("cem reais"))

	assert.True(t, errors.Is(err, correios.ErrInvalidNumber))
	assert.Empty(t, mockTransport.Calls())
}

func TestClient_Quote_MalformedResponse(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = reply(http.StatusOK, "<html><body>Manutencao programada")
	client := newTestClient(mockTransport)

	_, err := client.Quote(context.Background(), referenceRequest())

	assert.True(t, errors.Is(err, correios.ErrMalformedResponse))
	var qerr *correios.QuoteError
	assert.False(t, errors.As(err, &qerr))
}

func TestClient_Quote_TransportError(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.SimulateErrors = true
	client := newTestClient(mockTransport)

	_, err := client.Quote(context.Background(), referenceRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated transport error")
}

func TestClient_Quote_ContextCancelled(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.SimulateLatency = time.Second
	client := newTestClient(mockTransport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Quote(ctx, referenceRequest())

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Quote_ProviderErrorIsData(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = reply(http.StatusOK,
		correios.MockXML("41106", "0,00", "0", "-3", "CEP de destino invalido."))
	client := newTestClient(mockTransport)

	res, err := client.Quote(context.Background(), referenceRequest())

	require.NoError(t, err)
	assert.True(t, res.HasProviderError())
	assert.Equal(t, "-3", res.ProviderErrorCode)
	assert.Equal(t, "CEP de destino invalido.", res.ProviderErrorMessage)
}

func TestHTTPTransport_Fetch(t *testing.T) {
	var gotPath, gotService, gotWeight, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotService = r.URL.Query().Get("nCdServico")
		gotWeight = r.URL.Query().Get("nVlPeso")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
		_, _ = w.Write([]byte(pacReply))
	}))
	defer server.Close()

	transport := correios.NewHTTPTransport(correios.HTTPTransportConfig{Timeout: 5 * time.Second})
	client := correios.NewWithTransport(
		correios.Config{BaseURL: server.URL},
		transport,
		otelzap.New(zap.NewNop()),
		nil,
	)

	res, err := client.Quote(context.Background(), referenceRequest())

	require.NoError(t, err)
	assert.Equal(t, "/calculador/CalcPrecoPrazo.asmx/CalcPrecoPrazo", gotPath)
	assert.Equal(t, "41106", gotService)
	assert.Equal(t, "1.000", gotWeight)
	assert.Contains(t, gotAccept, "xml")
	assert.Equal(t, "10.50", res.Price.StringFixed(2))
}

func TestHTTPTransport_FetchNon200IsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Missing parameter: nCdServico.", http.StatusInternalServerError)
	}))
	defer server.Close()

	target, err := correios.Encode(server.URL, referenceRequest())
	require.NoError(t, err)

	raw, err := correios.NewHTTPTransport(correios.HTTPTransportConfig{}).Fetch(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, raw.StatusCode)
	assert.Contains(t, string(raw.Body), "Missing parameter")
}

// ============================================================================
// Shipper adapter
// ============================================================================

func testQuoteRequest() *shipper.QuoteRequest {
	return &shipper.QuoteRequest{
		Origin: shipper.Address{
			Name:        "Loja Centro",
			City:        "Florianopolis",
			StateCode:   "SC",
			PostalCode:  "88010-000",
			CountryCode: "BR",
		},
		Destination: shipper.Address{
			Name:        "Cliente",
			City:        "Sao Jose",
			StateCode:   "SC",
			PostalCode:  "88101-000",
			CountryCode: "BR",
		},
		Packages: []shipper.Package{
			{
				Length:        decimal.NewFromInt(20),
				Width:         decimal.NewFromInt(15),
				Height:        decimal.NewFromInt(5),
				DimensionUnit: shipper.DimensionCM,
				Weight:        decimal.RequireFromString("1.2"),
				WeightUnit:    shipper.WeightKG,
				PackageType:   shipper.PackageBox,
			},
		},
	}
}

func TestClient_GetQuote_Success(t *testing.T) {
	client := newTestClient(correios.NewMockTransport())

	resp, err := client.GetQuote(context.Background(), testQuoteRequest())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.QuoteID, "correios-quote-"))
	assert.Equal(t, "correios", resp.Carrier)
	require.Len(t, resp.Rates, len(correios.AllServices))
	assert.Empty(t, resp.Notices)

	byCode := make(map[string]shipper.RateOption)
	for _, rate := range resp.Rates {
		assert.Equal(t, "correios", rate.Carrier)
		assert.Equal(t, "BRL", rate.TotalPrice.Currency)
		require.NotNil(t, rate.EstimatedDelivery)
		byCode[rate.ServiceCode] = rate
	}

	pac := byCode["41106"]
	assert.Equal(t, "PAC", pac.ServiceName)
	assert.Equal(t, shipper.ServiceEconomy, pac.ServiceType)
	assert.Equal(t, "10.50", pac.TotalPrice.Amount.StringFixed(2))
	assert.Equal(t, 3, pac.TransitDays)
	assert.True(t, pac.HomeDelivery)

	assert.Equal(t, shipper.ServiceExpress, byCode["40010"].ServiceType)
	assert.Equal(t, shipper.ServiceExpress, byCode["40045"].ServiceType)
	assert.Equal(t, shipper.ServicePriority, byCode["40215"].ServiceType)
	assert.Equal(t, shipper.ServiceOvernight, byCode["40290"].ServiceType)
}

func TestClient_GetQuote_RequestedServicesOnly(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"41106", "40010"}
	req.Options.HandDelivery = true

	resp, err := client.GetQuote(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Rates, 2)
	assert.Equal(t, "41106", resp.Rates[0].ServiceCode)
	assert.Equal(t, "40010", resp.Rates[1].ServiceCode)

	calls := mockTransport.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, "88010000", call.Query.Get("sCepOrigem"))
		assert.Equal(t, "88101000", call.Query.Get("sCepDestino"))
		assert.Equal(t, "1.200", call.Query.Get("nVlPeso"))
		assert.Equal(t, "S", call.Query.Get("sCdMaoPropria"))
	}
}

func TestClient_GetQuote_ImperialUnits(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"41106"}
	req.Packages[0] = shipper.Package{
		Length:        decimal.NewFromInt(10),
		Width:         decimal.NewFromInt(8),
		Height:        decimal.NewFromInt(4),
		DimensionUnit: shipper.DimensionIN,
		Weight:        decimal.NewFromInt(2),
		WeightUnit:    shipper.WeightLB,
		PackageType:   shipper.PackageEnvelope,
	}

	_, err := client.GetQuote(context.Background(), req)
	require.NoError(t, err)

	calls := mockTransport.Calls()
	require.Len(t, calls, 1)
	q := calls[0].Query
	assert.Equal(t, "0.907", q.Get("nVlPeso"))
	assert.Equal(t, "26", q.Get("nVlComprimento"))
	assert.Equal(t, "21", q.Get("nVlLargura"))
	assert.Equal(t, "11", q.Get("nVlAltura"))
	assert.Equal(t, "3", q.Get("nCdFormato"))
}

func TestClient_GetQuote_SurchargesSplitFromBaseRate(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = reply(http.StatusOK, `<?xml version="1.0" encoding="ISO-8859-1" ?>`+
		`<Servicos><cServico><Codigo>40010</Codigo><Valor>30,00</Valor><PrazoEntrega>1</PrazoEntrega>`+
		`<ValorMaoPropria>5,50</ValorMaoPropria><ValorAvisoRecebimento>4,30</ValorAvisoRecebimento>`+
		`<ValorValorDeclarado>0,00</ValorValorDeclarado><EntregaDomiciliar>S</EntregaDomiciliar>`+
		`<EntregaSabado>S</EntregaSabado><Erro>0</Erro><MsgErro></MsgErro></cServico></Servicos>`)
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"40010"}

	resp, err := client.GetQuote(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Rates, 1)
	rate := resp.Rates[0]
	assert.Equal(t, "20.20", rate.BaseRate.Amount.StringFixed(2))
	assert.Equal(t, "9.80", rate.Surcharges.Amount.StringFixed(2))
	assert.Equal(t, "30.00", rate.TotalPrice.Amount.StringFixed(2))
	assert.True(t, rate.SaturdayDelivery)
}

func TestClient_GetQuote_DeclinedServiceBecomesNotice(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = func(ctx context.Context, target correios.RequestTarget) (*correios.RawResponse, error) {
		code := target.Query.Get("nCdServico")
		if code == "40290" {
			return &correios.RawResponse{
				StatusCode: http.StatusOK,
				Body:       []byte(correios.MockXML(code, "0,00", "0", "-6", "Servico indisponivel para o trecho informado.")),
			}, nil
		}
		return &correios.RawResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(correios.MockXML(code, "15,00", "2", "0", "")),
		}, nil
	}
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"40010", "40290"}

	resp, err := client.GetQuote(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Rates, 1)
	assert.Equal(t, "40010", resp.Rates[0].ServiceCode)
	require.Len(t, resp.Notices, 1)
	assert.Contains(t, resp.Notices[0], "SEDEX Hoje")
	assert.Contains(t, resp.Notices[0], "-6")
}

func TestClient_GetQuote_PartialFailure(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = func(ctx context.Context, target correios.RequestTarget) (*correios.RawResponse, error) {
		code := target.Query.Get("nCdServico")
		if code == "40215" {
			return &correios.RawResponse{StatusCode: http.StatusServiceUnavailable, Body: []byte("Service Unavailable")}, nil
		}
		return &correios.RawResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(correios.MockXML(code, "15,00", "2", "0", "")),
		}, nil
	}
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"41106", "40215"}

	resp, err := client.GetQuote(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, resp.Rates, 1)
	require.Len(t, resp.Notices, 1)
	assert.Contains(t, resp.Notices[0], "HTTP_503")
}

func TestClient_GetQuote_AllServicesFail(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.SimulateErrors = true
	client := newTestClient(mockTransport)

	_, err := client.GetQuote(context.Background(), testQuoteRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, &shipper.ShipperError{Code: "TRANSPORT"}))
	assert.True(t, shipper.IsRetryable(err))
}

func TestClient_GetQuote_AllServicesDeclined(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = func(ctx context.Context, target correios.RequestTarget) (*correios.RawResponse, error) {
		return &correios.RawResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(correios.MockXML(target.Query.Get("nCdServico"), "0,00", "0", "-3", "CEP de destino invalido.")),
		}, nil
	}
	client := newTestClient(mockTransport)

	_, err := client.GetQuote(context.Background(), testQuoteRequest())

	assert.True(t, errors.Is(err, shipper.ErrNoRates))
}

func TestClient_GetQuote_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *shipper.QuoteRequest)
		want   error
	}{
		{
			name:   "no packages",
			mutate: func(req *shipper.QuoteRequest) { req.Packages = nil },
			want:   shipper.ErrInvalidPackage,
		},
		{
			name:   "zero weight",
			mutate: func(req *shipper.QuoteRequest) { req.Packages[0].Weight = decimal.Zero },
			want:   shipper.ErrInvalidPackage,
		},
		{
			name:   "unknown service",
			mutate: func(req *shipper.QuoteRequest) { req.Options.ServiceCodes = []string{"99999"} },
			want:   correios.ErrInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTransport := correios.NewMockTransport()
			client := newTestClient(mockTransport)

			req := testQuoteRequest()
			tt.mutate(req)

			_, err := client.GetQuote(context.Background(), req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Empty(t, mockTransport.Calls())
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := newTestClient(correios.NewMockTransport())
	assert.Equal(t, "correios", client.Name())
}

func TestClient_GetQuote_FailuresKeepDeclineReasons(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	mockTransport.OnFetch = func(ctx context.Context, target correios.RequestTarget) (*correios.RawResponse, error) {
		code := target.Query.Get("nCdServico")
		if code == "40215" {
			return &correios.RawResponse{StatusCode: http.StatusServiceUnavailable, Body: []byte("Service Unavailable")}, nil
		}
		return &correios.RawResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(correios.MockXML(code, "0,00", "0", "-3", "CEP de destino invalido.")),
		}, nil
	}
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Options.ServiceCodes = []string{"40215", "41106"}

	_, err := client.GetQuote(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, &shipper.ShipperError{Code: "HTTP_503"}))
	assert.True(t, errors.Is(err, shipper.ErrNoRates))
	assert.Contains(t, err.Error(), "CEP de destino invalido.")
	assert.True(t, shipper.IsRetryable(err), "the transport failure is reported first")
}

func TestClient_GetQuote_UnknownPackageType(t *testing.T) {
	mockTransport := correios.NewMockTransport()
	client := newTestClient(mockTransport)

	req := testQuoteRequest()
	req.Packages[0].PackageType = shipper.PackageType("tube")

	_, err := client.GetQuote(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.Is(err, &shipper.ShipperError{Code: "INVALID_PACKAGE"}))
	assert.True(t, errors.Is(err, shipper.ErrInvalidPackage))
	assert.True(t, errors.Is(err, correios.ErrInvalidParameter))
	assert.Empty(t, mockTransport.Calls())
}

func TestClient_GetQuote_PackageTypes(t *testing.T) {
	tests := []struct {
		packageType shipper.PackageType
		want        string
	}{
		{"", "1"},
		{shipper.PackageBox, "1"},
		{shipper.PackageRoll, "2"},
		{shipper.PackageEnvelope, "3"},
	}

	for _, tt := range tests {
		t.Run(string(tt.packageType), func(t *testing.T) {
			mockTransport := correios.NewMockTransport()
			client := newTestClient(mockTransport)

			req := testQuoteRequest()
			req.Options.ServiceCodes = []string{"41106"}
			req.Packages[0].PackageType = tt.packageType

			_, err := client.GetQuote(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mockTransport.Calls()[0].Query.Get("nCdFormato"))
		})
	}
}

func TestClient_NilLoggerDefaultsToNop(t *testing.T) {
	client := correios.NewWithTransport(correios.Config{}, correios.NewMockTransport(), nil, nil)

	var res *correios.QuoteResult
	var err error
	require.NotPanics(t, func() {
		res, err = client.Quote(context.Background(), referenceRequest())
	})
	require.NoError(t, err)
	assert.Equal(t, "10.50", res.Price.StringFixed(2))
}

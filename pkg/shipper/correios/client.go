// Package correios provides integration with the Correios price and
// delivery-time calculator (CalcPrecoPrazo).
package correios

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tournevent/correios/pkg/shipper"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const carrierName = "correios"

var (
	poundsToKilograms   = decimal.RequireFromString("0.45359237")
	inchesToCentimetres = decimal.RequireFromString("2.54")
)

// Config holds Correios configuration.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
	UseMock            bool
	// MaxConcurrency bounds the parallel service lookups made by GetQuote.
	MaxConcurrency int
}

// Client is the Correios shipper client.
type Client struct {
	config    Config
	transport Transport
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Correios client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var transport Transport

	if cfg.UseMock {
		transport = NewMockTransport()
	} else {
		transport = NewHTTPTransport(HTTPTransportConfig{
			Timeout:            cfg.Timeout,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		})
	}

	return NewWithTransport(cfg, transport, logger, tracer)
}

// NewWithTransport creates a new Correios client with a custom transport.
func NewWithTransport(cfg Config, transport Transport, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(carrierName)
	}
	if logger == nil {
		logger = otelzap.New(zap.NewNop())
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = len(AllServices)
	}

	return &Client{
		config:    cfg,
		transport: transport,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Quote performs a single calculator round trip for req.
//
// Validation and encoding errors are returned before any network call. A
// non-200 reply yields a *QuoteError; a 200 reply that is not the expected
// XML yields ErrMalformedResponse. A provider business error is not an
// error: it is reported in the result's ProviderErrorCode.
func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResult, error) {
	target, err := Encode(c.config.BaseURL, req)
	if err != nil {
		return nil, err
	}
	service, _ := req.ServiceCode()

	ctx, span := c.tracer.Start(ctx, "correios.quote", trace.WithAttributes(
		attribute.String("correios.service_code", service.String()),
		attribute.String("correios.origin_postal_code", req.OriginPostalCode()),
		attribute.String("correios.destination_postal_code", req.DestinationPostalCode()),
	))
	defer span.End()

	log := c.logger.Ctx(ctx)
	log.Info("Requesting Correios quote",
		zap.String("service", service.Name()),
		zap.String("origin_postal", req.OriginPostalCode()),
		zap.String("destination_postal", req.DestinationPostalCode()),
		zap.String("weight", req.Weight()),
	)

	raw, err := c.transport.Fetch(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		log.Error("Correios transport error", zap.Error(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", raw.StatusCode))

	if raw.StatusCode != http.StatusOK {
		qerr := ParseErrorBody(raw.StatusCode, raw.Body)
		span.SetStatus(codes.Error, qerr.Message)
		log.Warn("Correios returned an HTTP error",
			zap.Int("status", qerr.StatusCode),
			zap.String("message", qerr.Message),
		)
		return nil, qerr
	}

	result, err := ParseResponse(raw.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		log.Error("Malformed Correios response", zap.Error(err), zap.Int("body_bytes", len(raw.Body)))
		return nil, err
	}

	if result.HasProviderError() {
		span.SetAttributes(attribute.String("correios.error_code", result.ProviderErrorCode))
		log.Warn("Correios reported a provider error",
			zap.String("code", result.ProviderErrorCode),
			zap.String("message", result.ProviderErrorMessage),
		)
	}

	return result, nil
}

// GetQuote returns Correios rates for the first package of req, one rate
// per requested service code (all known services when none are given).
// Services are quoted concurrently, each with its own QuoteRequest.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if len(req.Packages) == 0 {
		return nil, shipper.NewShipperError(carrierName, "INVALID_PACKAGE", "at least one package is required").
			WithCause(shipper.ErrInvalidPackage)
	}
	services, err := resolveServices(req.Options.ServiceCodes)
	if err != nil {
		return nil, shipper.NewShipperError(carrierName, "INVALID_SERVICE", "unsupported service code").WithCause(err)
	}

	pkg := req.Packages[0]
	if err := buildQuoteRequest(req, pkg, services[0]).Err(); err != nil {
		return nil, shipper.NewShipperError(carrierName, "INVALID_PACKAGE", "package cannot be quoted").
			WithCause(errors.Join(shipper.ErrInvalidPackage, err))
	}
	if !pkg.Weight.IsPositive() {
		return nil, shipper.NewShipperError(carrierName, "INVALID_PACKAGE", "weight must be positive").
			WithCause(shipper.ErrInvalidPackage)
	}

	c.logger.Info("Getting Correios quotes",
		zap.String("origin_postal", req.Origin.PostalCode),
		zap.String("destination_postal", req.Destination.PostalCode),
		zap.Int("service_count", len(services)),
	)

	results := make([]*QuoteResult, len(services))
	errs := make([]error, len(services))

	var g errgroup.Group
	g.SetLimit(c.config.MaxConcurrency)
	for i, svc := range services {
		g.Go(func() error {
			results[i], errs[i] = c.Quote(ctx, buildQuoteRequest(req, pkg, svc))
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now()
	resp := &shipper.QuoteResponse{
		QuoteID:   carrierName + "-quote-" + uuid.NewString(),
		Carrier:   carrierName,
		ExpiresAt: now.Add(30 * time.Minute),
	}

	var failures []error
	for i, svc := range services {
		if errs[i] != nil {
			failures = append(failures, toShipperError(svc, errs[i]))
			continue
		}
		res := results[i]
		if res.HasProviderError() && res.Price.IsZero() {
			resp.Notices = append(resp.Notices, fmt.Sprintf("%s: %s (%s)", svc.Name(), res.ProviderErrorMessage, res.ProviderErrorCode))
			continue
		}
		resp.Rates = append(resp.Rates, resultToRate(svc, res, now, resp.ExpiresAt))
	}

	if len(resp.Rates) == 0 {
		if len(failures) > 0 {
			if len(resp.Notices) > 0 {
				failures = append(failures, shipper.NewShipperError(carrierName, "NO_RATES", strings.Join(resp.Notices, "; ")).
					WithCause(shipper.ErrNoRates))
			}
			return nil, errors.Join(failures...)
		}
		return nil, shipper.NewShipperError(carrierName, "NO_RATES", strings.Join(resp.Notices, "; ")).
			WithCause(shipper.ErrNoRates)
	}
	for _, f := range failures {
		resp.Notices = append(resp.Notices, f.Error())
	}

	return resp, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func resolveServices(requested []string) ([]ServiceCode, error) {
	if len(requested) == 0 {
		return AllServices, nil
	}
	services := make([]ServiceCode, 0, len(requested))
	for _, code := range requested {
		svc, err := ParseServiceCode(code)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, nil
}

func buildQuoteRequest(req *shipper.QuoteRequest, pkg shipper.Package, svc ServiceCode) *QuoteRequest {
	weight := pkg.Weight
	if pkg.WeightUnit == shipper.WeightLB {
		weight = weight.Mul(poundsToKilograms)
	}

	return NewQuoteRequest().
		SetOriginPostalCode(req.Origin.PostalCode).
		SetDestinationPostalCode(req.Destination.PostalCode).
		SetWeight(weight.String()).
		SetLength(centimetres(pkg.Length, pkg.DimensionUnit)).
		SetHeight(centimetres(pkg.Height, pkg.DimensionUnit)).
		SetWidth(centimetres(pkg.Width, pkg.DimensionUnit)).
		SetPackageFormat(packageFormatCode(pkg.PackageType)).
		SetDeclaredValue(pkg.DeclaredValue.String()).
		SetHandDelivery(req.Options.HandDelivery).
		SetReceiptNotice(req.Options.ReceiptNotice).
		SetServiceCode(svc.String())
}

// centimetres converts d to whole centimetres, rounding up.
func centimetres(d decimal.Decimal, unit shipper.DimensionUnit) string {
	if unit == shipper.DimensionIN {
		d = d.Mul(inchesToCentimetres)
	}
	return d.Ceil().String()
}

// packageFormatCode maps the carrier-neutral package type to a format token.
// Unknown types pass through so SetPackageFormat rejects them.
func packageFormatCode(pt shipper.PackageType) string {
	switch pt {
	case "", shipper.PackageBox:
		return FormatBox.Code()
	case shipper.PackageRoll:
		return FormatRoll.Code()
	case shipper.PackageEnvelope:
		return FormatEnvelope.Code()
	default:
		return string(pt)
	}
}

func resultToRate(svc ServiceCode, res *QuoteResult, now, expiresAt time.Time) shipper.RateOption {
	surcharges := res.HandDeliverySurcharge.
		Add(res.ReceiptNoticeSurcharge).
		Add(res.DeclaredValueSurcharge)
	estimated := now.AddDate(0, 0, res.DeliveryDays)

	rate := shipper.RateOption{
		RateID:            carrierName + "-" + svc.String() + "-" + uuid.NewString()[:8],
		Carrier:           carrierName,
		ServiceCode:       svc.String(),
		ServiceName:       svc.Name(),
		ServiceType:       mapServiceType(svc),
		BaseRate:          brl(res.Price.Sub(surcharges)),
		Surcharges:        brl(surcharges),
		TotalPrice:        brl(res.Price),
		TransitDays:       res.DeliveryDays,
		EstimatedDelivery: &estimated,
		ExpiresAt:         expiresAt,
		HomeDelivery:      res.HomeDelivery,
		SaturdayDelivery:  res.SaturdayDelivery,
	}
	if res.HasProviderError() {
		rate.Notice = res.ProviderErrorMessage
	}
	return rate
}

func brl(amount decimal.Decimal) shipper.Money {
	return shipper.Money{Amount: amount, Currency: "BRL"}
}

func mapServiceType(svc ServiceCode) shipper.ServiceType {
	switch svc {
	case ServiceSEDEX, ServiceSEDEXCollect:
		return shipper.ServiceExpress
	case ServiceSEDEX10:
		return shipper.ServicePriority
	case ServiceSEDEXToday:
		return shipper.ServiceOvernight
	case ServicePAC:
		return shipper.ServiceEconomy
	default:
		return shipper.ServiceStandard
	}
}

func toShipperError(svc ServiceCode, err error) *shipper.ShipperError {
	var qerr *QuoteError
	switch {
	case errors.As(err, &qerr):
		return shipper.NewShipperError(carrierName, fmt.Sprintf("HTTP_%d", qerr.StatusCode), svc.Name()+": "+qerr.Message).
			WithStatusCode(qerr.StatusCode).
			WithRetryable(qerr.StatusCode >= http.StatusInternalServerError).
			WithCause(err)
	case errors.Is(err, ErrMalformedResponse):
		return shipper.NewShipperError(carrierName, "MALFORMED_RESPONSE", svc.Name()+": unreadable reply").
			WithCause(err)
	case errors.Is(err, ErrInvalidParameter), errors.Is(err, ErrIncompleteRequest), errors.Is(err, ErrInvalidNumber):
		return shipper.NewShipperError(carrierName, "INVALID_REQUEST", svc.Name()+": request rejected").
			WithCause(err)
	default:
		return shipper.NewShipperError(carrierName, "TRANSPORT", svc.Name()+": request failed").
			WithRetryable(!errors.Is(err, context.Canceled)).
			WithCause(err)
	}
}

var _ shipper.Shipper = (*Client)(nil)

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/correios/pkg/shipper/correios"
	"go.uber.org/zap"
)

const correiosCarrier = "correios"

// handleQuote serves a single-service Correios quote built from the query
// string.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx := r.Context()
	log := s.logger.Ctx(ctx)

	if s.quoter == nil {
		s.metrics.RecordRequest("quote", correiosCarrier, "disabled", time.Since(start).Seconds())
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			RequestID: requestID,
			Message:   "correios carrier is disabled",
		})
		return
	}

	req, err := quoteRequestFromQuery(r)
	if err != nil {
		s.metrics.RecordRequest("quote", correiosCarrier, "invalid", time.Since(start).Seconds())
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID, Message: err.Error()})
		return
	}

	res, err := s.quoter.Quote(ctx, req)
	if err != nil {
		status, body := s.quoteFailure(err)
		body.RequestID = requestID
		log.Warn("Quote failed", zap.String("request_id", requestID), zap.Error(err), zap.Int("status", status))
		s.metrics.RecordRequest("quote", correiosCarrier, "error", time.Since(start).Seconds())
		writeJSON(w, status, body)
		return
	}

	service, _ := req.ServiceCode()
	if res.HasProviderError() {
		s.metrics.RecordDecline(service.String(), res.ProviderErrorCode)
	}
	s.metrics.RecordRequest("quote", correiosCarrier, "success", time.Since(start).Seconds())

	dto := resultToDTO(res, service, s.now())
	dto.RequestID = requestID
	writeJSON(w, http.StatusOK, dto)
}

// quoteFailure maps a Quote error onto an HTTP status and body.
func (s *Server) quoteFailure(err error) (int, errorResponse) {
	var qerr *correios.QuoteError
	switch {
	case errors.Is(err, correios.ErrInvalidParameter),
		errors.Is(err, correios.ErrIncompleteRequest),
		errors.Is(err, correios.ErrInvalidNumber):
		return http.StatusBadRequest, errorResponse{Code: "INVALID_REQUEST", Message: err.Error()}
	case errors.As(err, &qerr):
		s.metrics.RecordError(correiosCarrier, "http_"+strconv.Itoa(qerr.StatusCode))
		return http.StatusBadGateway, errorResponse{Status: qerr.StatusCode, Code: "QUOTE_ERROR", Message: qerr.Message}
	case errors.Is(err, correios.ErrMalformedResponse):
		s.metrics.RecordError(correiosCarrier, "malformed_response")
		return http.StatusBadGateway, errorResponse{Code: "MALFORMED_RESPONSE", Message: err.Error()}
	default:
		s.metrics.RecordError(correiosCarrier, "transport")
		return http.StatusBadGateway, errorResponse{Code: "TRANSPORT", Message: err.Error()}
	}
}

// quoteRequestFromQuery builds a QuoteRequest from the query string. Optional
// fields left out of the query keep their defaults.
func quoteRequestFromQuery(r *http.Request) (*correios.QuoteRequest, error) {
	q := r.URL.Query()
	req := correios.NewQuoteRequest().
		SetOriginPostalCode(q.Get("origin")).
		SetDestinationPostalCode(q.Get("destination")).
		SetHeight(q.Get("height")).
		SetLength(q.Get("length")).
		SetWidth(q.Get("width"))

	if q.Has("service") {
		req.SetServiceCode(q.Get("service"))
	}
	if q.Has("weight") {
		req.SetWeight(q.Get("weight"))
	}
	if q.Has("format") {
		req.SetPackageFormat(q.Get("format"))
	}
	if q.Has("declared_value") {
		req.SetDeclaredValue(q.Get("declared_value"))
	}
	flags := []struct {
		name string
		set  func(bool) *correios.QuoteRequest
	}{
		{"hand_delivery", req.SetHandDelivery},
		{"receipt_notice", req.SetReceiptNotice},
	}
	for _, f := range flags {
		if !q.Has(f.name) {
			continue
		}
		v, err := strconv.ParseBool(q.Get(f.name))
		if err != nil {
			return nil, errors.New("invalid " + f.name + ": " + strconv.Quote(q.Get(f.name)))
		}
		f.set(v)
	}

	if err := req.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// handleRates fans a carrier-neutral quote request out to the registry.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx := r.Context()
	log := s.logger.Ctx(ctx)

	var in ratesRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.metrics.RecordRequest("rates", "all", "invalid", time.Since(start).Seconds())
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID, Message: "invalid JSON: " + err.Error()})
		return
	}
	req, err := in.toModel()
	if err != nil {
		s.metrics.RecordRequest("rates", "all", "invalid", time.Since(start).Seconds())
		writeJSON(w, http.StatusBadRequest, errorResponse{RequestID: requestID, Message: err.Error()})
		return
	}

	responses, errs := s.registry.GetQuotesFromCarriers(ctx, req, req.Options.Carriers)
	for _, err := range errs {
		log.Warn("Carrier quote failed", zap.String("request_id", requestID), zap.Error(err))
		s.metrics.RecordError("all", "carrier")
	}

	out := ratesResponse{
		RequestID: requestID,
		Success:   len(responses) > 0,
		Quotes:    make([]quoteDTO, len(responses)),
		Errors:    errorsToDTO(errs),
	}
	for i, resp := range responses {
		out.Quotes[i] = quoteToDTO(resp)
		s.metrics.RecordRequest("rates", resp.Carrier, "success", time.Since(start).Seconds())
	}

	status := http.StatusOK
	if !out.Success {
		status = http.StatusBadGateway
		s.metrics.RecordRequest("rates", "all", "error", time.Since(start).Seconds())
	}
	log.Info("Rates served",
		zap.String("request_id", requestID),
		zap.Int("quotes", len(responses)),
		zap.Int("errors", len(errs)),
		zap.Duration("duration", time.Since(start)),
	)
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

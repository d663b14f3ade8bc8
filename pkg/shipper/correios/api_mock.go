package correios

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// MockTransport is a mock implementation of Transport for testing and local runs.
type MockTransport struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnFetch func(ctx context.Context, target RequestTarget) (*RawResponse, error)

	mu    sync.Mutex
	calls []RequestTarget
}

// NewMockTransport creates a new mock transport with default behavior.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// mockQuotes are canned prices per service: price, delivery days.
var mockQuotes = map[string][2]string{
	ServiceSEDEX.String():        {"24,90", "1"},
	ServiceSEDEXCollect.String(): {"26,40", "1"},
	ServiceSEDEX10.String():      {"38,70", "1"},
	ServiceSEDEXToday.String():   {"52,10", "0"},
	ServicePAC.String():          {"10,50", "3"},
}

// Fetch returns a well-formed calculator reply for the requested service.
func (m *MockTransport) Fetch(ctx context.Context, target RequestTarget) (*RawResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, target)
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.SimulateErrors {
		return nil, errors.New("simulated transport error")
	}

	if m.OnFetch != nil {
		return m.OnFetch(ctx, target)
	}

	code := target.Query.Get("nCdServico")
	quote, ok := mockQuotes[code]
	if !ok {
		return &RawResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(MockXML(code, "0,00", "0", "-1", "Codigo de servico invalido.")),
		}, nil
	}
	return &RawResponse{
		StatusCode: http.StatusOK,
		Body:       []byte(MockXML(code, quote[0], quote[1], "0", "")),
	}, nil
}

// Calls returns the targets fetched so far.
func (m *MockTransport) Calls() []RequestTarget {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestTarget, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockXML renders a single-service calculator reply.
func MockXML(code, price, days, errCode, errMsg string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="ISO-8859-1" ?>`+
		`<Servicos><cServico>`+
		`<Codigo>%s</Codigo>`+
		`<Valor>%s</Valor>`+
		`<PrazoEntrega>%s</PrazoEntrega>`+
		`<ValorMaoPropria>0,00</ValorMaoPropria>`+
		`<ValorAvisoRecebimento>0,00</ValorAvisoRecebimento>`+
		`<ValorValorDeclarado>0,00</ValorValorDeclarado>`+
		`<EntregaDomiciliar>S</EntregaDomiciliar>`+
		`<EntregaSabado>N</EntregaSabado>`+
		`<Erro>%s</Erro>`+
		`<MsgErro>%s</MsgErro>`+
		`</cServico></Servicos>`, code, price, days, errCode, errMsg)
}

var _ Transport = (*MockTransport)(nil)

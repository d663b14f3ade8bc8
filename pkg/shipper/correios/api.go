package correios

import (
	"context"
	"encoding/xml"
)

// Transport performs the network round trip for a calculator request.
// This abstraction allows for mock implementations during testing
// and the net/http implementation in production. Cancellation and
// timeouts are carried by ctx.
type Transport interface {
	Fetch(ctx context.Context, target RequestTarget) (*RawResponse, error)
}

// RawResponse is the unparsed provider reply.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// ============================================================================
// XML Response structures for the CalcPrecoPrazo endpoint
// ============================================================================

// cServico is a single service entry:
//
//	<Servicos><cServico><Codigo/><Valor/>...</cServico></Servicos>
type cServico struct {
	XMLName               xml.Name `xml:"cServico"`
	Codigo                string   `xml:"Codigo"`
	Valor                 string   `xml:"Valor"`
	PrazoEntrega          string   `xml:"PrazoEntrega"`
	ValorMaoPropria       string   `xml:"ValorMaoPropria"`
	ValorAvisoRecebimento string   `xml:"ValorAvisoRecebimento"`
	ValorValorDeclarado   string   `xml:"ValorValorDeclarado"`
	EntregaDomiciliar     string   `xml:"EntregaDomiciliar"`
	EntregaSabado         string   `xml:"EntregaSabado"`
	Erro                  string   `xml:"Erro"`
	MsgErro               string   `xml:"MsgErro"`
}

// Package mock provides a mock shipper implementation for testing.
package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tournevent/correios/pkg/shipper"
)

// Client is a mock shipper for testing.
type Client struct {
	name string
	err  error
}

// New creates a new mock shipper.
func New(name string) *Client {
	return &Client{name: name}
}

// NewFailing creates a mock shipper whose GetQuote always returns err.
func NewFailing(name string, err error) *Client {
	return &Client{name: name, err: err}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// GetQuote returns mock shipping quotes.
func (c *Client) GetQuote(ctx context.Context, req *shipper.QuoteRequest) (*shipper.QuoteResponse, error) {
	if c.err != nil {
		return nil, c.err
	}

	now := time.Now()
	expiresAt := now.Add(30 * time.Minute)
	economy := now.AddDate(0, 0, 5)
	express := now.AddDate(0, 0, 1)

	return &shipper.QuoteResponse{
		QuoteID:   c.name + "-quote-" + uuid.NewString(),
		Carrier:   c.name,
		ExpiresAt: expiresAt,
		Rates: []shipper.RateOption{
			{
				RateID:            c.name + "-rate-economy-" + uuid.NewString()[:8],
				Carrier:           c.name,
				ServiceCode:       "ECONOMY",
				ServiceName:       c.name + " Economy",
				ServiceType:       shipper.ServiceEconomy,
				BaseRate:          brl("10.50"),
				Surcharges:        brl("0.00"),
				TotalPrice:        brl("10.50"),
				TransitDays:       5,
				EstimatedDelivery: &economy,
				ExpiresAt:         expiresAt,
				HomeDelivery:      true,
			},
			{
				RateID:            c.name + "-rate-express-" + uuid.NewString()[:8],
				Carrier:           c.name,
				ServiceCode:       "EXPRESS",
				ServiceName:       c.name + " Express",
				ServiceType:       shipper.ServiceExpress,
				BaseRate:          brl("24.90"),
				Surcharges:        brl("2.10"),
				TotalPrice:        brl("27.00"),
				TransitDays:       1,
				EstimatedDelivery: &express,
				ExpiresAt:         expiresAt,
				HomeDelivery:      true,
				SaturdayDelivery:  true,
			},
		},
	}, nil
}

func brl(amount string) shipper.Money {
	return shipper.Money{Amount: decimal.RequireFromString(amount), Currency: "BRL"}
}

var _ shipper.Shipper = (*Client)(nil)

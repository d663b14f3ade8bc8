package shipper

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType represents the shipping service type.
type ServiceType string

const (
	ServiceStandard  ServiceType = "standard"
	ServiceExpress   ServiceType = "express"
	ServicePriority  ServiceType = "priority"
	ServiceOvernight ServiceType = "overnight"
	ServiceEconomy   ServiceType = "economy"
)

// PackageType represents the type of package.
type PackageType string

const (
	PackageBox      PackageType = "box"
	PackageRoll     PackageType = "roll"
	PackageEnvelope PackageType = "envelope"
)

// WeightUnit represents weight measurement unit.
type WeightUnit string

const (
	WeightKG WeightUnit = "kg"
	WeightLB WeightUnit = "lb"
)

// DimensionUnit represents dimension measurement unit.
type DimensionUnit string

const (
	DimensionCM DimensionUnit = "cm"
	DimensionIN DimensionUnit = "in"
)

// Address represents a shipping address.
type Address struct {
	Name          string
	Line1         string
	Line2         string
	City          string
	StateCode     string // e.g., "SC", "SP"
	PostalCode    string
	CountryCode   string // ISO 3166-1 alpha-2, e.g., "BR"
	IsResidential bool
}

// Package represents a package to be shipped.
type Package struct {
	ID            string
	Length        decimal.Decimal
	Width         decimal.Decimal
	Height        decimal.Decimal
	DimensionUnit DimensionUnit
	Weight        decimal.Decimal
	WeightUnit    WeightUnit
	PackageType   PackageType
	DeclaredValue decimal.Decimal
	Currency      string
}

// Money represents a monetary amount.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// RateOption represents a shipping rate option from a carrier.
type RateOption struct {
	RateID            string
	Carrier           string
	ServiceCode       string
	ServiceName       string
	ServiceType       ServiceType
	BaseRate          Money
	Surcharges        Money
	TotalPrice        Money
	TransitDays       int
	EstimatedDelivery *time.Time
	ExpiresAt         time.Time
	HomeDelivery      bool
	SaturdayDelivery  bool
	Notice            string // Non-fatal carrier message attached to the rate
}

// ShippingOptions represents shipping preferences.
type ShippingOptions struct {
	Carriers      []string // Empty = all carriers
	ServiceCodes  []string // Carrier service codes; empty = all known services
	HandDelivery  bool
	ReceiptNotice bool
}

// ============================================================================
// Request/Response Types
// ============================================================================

// QuoteRequest is the request for getting shipping quotes.
type QuoteRequest struct {
	ShipperID   string
	Origin      Address
	Destination Address
	Packages    []Package
	Options     ShippingOptions
}

// QuoteResponse is the response from getting shipping quotes.
type QuoteResponse struct {
	QuoteID   string
	Carrier   string
	Rates     []RateOption
	Notices   []string // Services the carrier declined, with its reason
	ExpiresAt time.Time
}

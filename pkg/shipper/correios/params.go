package correios

import (
	"strconv"
	"strings"
)

// PackageFormat is the packaging shape accepted by the calculator.
type PackageFormat int

// Package formats and their wire codes.
const (
	FormatBox      PackageFormat = 1
	FormatRoll     PackageFormat = 2
	FormatEnvelope PackageFormat = 3
)

var packageFormats = map[string]PackageFormat{
	"1":        FormatBox,
	"caixa":    FormatBox,
	"box":      FormatBox,
	"2":        FormatRoll,
	"rolo":     FormatRoll,
	"roll":     FormatRoll,
	"3":        FormatEnvelope,
	"envelope": FormatEnvelope,
}

// ParsePackageFormat maps a format token (wire code or name) to a PackageFormat.
func ParsePackageFormat(value string) (PackageFormat, error) {
	if f, ok := packageFormats[strings.ToLower(strings.TrimSpace(value))]; ok {
		return f, nil
	}
	return 0, &InvalidParameterError{Field: "package format", Value: value}
}

// Code returns the wire code sent as nCdFormato.
func (f PackageFormat) Code() string {
	return strconv.Itoa(int(f))
}

func (f PackageFormat) String() string {
	switch f {
	case FormatBox:
		return "caixa"
	case FormatRoll:
		return "rolo"
	case FormatEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// ServiceCode is a Correios delivery product.
type ServiceCode int

// Known service codes.
const (
	ServiceSEDEX        ServiceCode = 40010
	ServiceSEDEXCollect ServiceCode = 40045
	ServiceSEDEX10      ServiceCode = 40215
	ServiceSEDEXToday   ServiceCode = 40290
	ServicePAC          ServiceCode = 41106
)

// AllServices lists every supported service code.
var AllServices = []ServiceCode{
	ServiceSEDEX,
	ServiceSEDEXCollect,
	ServiceSEDEX10,
	ServiceSEDEXToday,
	ServicePAC,
}

var serviceNames = map[ServiceCode]string{
	ServiceSEDEX:        "SEDEX",
	ServiceSEDEXCollect: "SEDEX a Cobrar",
	ServiceSEDEX10:      "SEDEX 10",
	ServiceSEDEXToday:   "SEDEX Hoje",
	ServicePAC:          "PAC",
}

// ParseServiceCode accepts only the five known numeric codes.
func ParseServiceCode(value string) (ServiceCode, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err == nil {
		if _, ok := serviceNames[ServiceCode(n)]; ok {
			return ServiceCode(n), nil
		}
	}
	return 0, &InvalidParameterError{Field: "service code", Value: value}
}

// String returns the wire code sent as nCdServico.
func (s ServiceCode) String() string {
	return strconv.Itoa(int(s))
}

// Name returns the commercial name, e.g. "SEDEX 10".
func (s ServiceCode) Name() string {
	if name, ok := serviceNames[s]; ok {
		return name
	}
	return "unknown"
}

package correios

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the Correios client.
var (
	// ErrInvalidParameter indicates an enumerated field received a value outside its whitelist.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrIncompleteRequest indicates a mandatory field was never set.
	ErrIncompleteRequest = errors.New("incomplete request")

	// ErrInvalidNumber indicates a decimal field could not be parsed.
	ErrInvalidNumber = errors.New("invalid number")

	// ErrMalformedResponse indicates a 200 response whose body is not the expected XML.
	ErrMalformedResponse = errors.New("malformed response")
)

// InvalidParameterError reports the field and the rejected value.
type InvalidParameterError struct {
	Field string
	Value string
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidParameter) match.
func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// QuoteError is returned when the provider answers with a non-200 status.
// Message holds the "Missing parameter: ..." diagnostic when one could be
// extracted, otherwise the raw body.
type QuoteError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *QuoteError) Error() string {
	return fmt.Sprintf("correios http %d: %s", e.StatusCode, e.Message)
}

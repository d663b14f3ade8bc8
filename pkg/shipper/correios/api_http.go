package correios

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport is the production Transport using net/http.
type HTTPTransport struct {
	httpClient *http.Client
	userAgent  string
}

// HTTPTransportConfig holds configuration for the HTTP transport.
type HTTPTransportConfig struct {
	Timeout time.Duration
	// InsecureSkipVerify disables certificate validation. The calculator host
	// has historically served a self-signed or mismatched certificate.
	InsecureSkipVerify bool
	UserAgent          string
}

// NewHTTPTransport creates a new HTTP transport for production use.
func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "tournevent-correios/1.0"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
	}
}

// Fetch issues a GET for target and returns the status code and body.
// Non-200 statuses are not errors at this layer.
func (t *HTTPTransport) Fetch(ctx context.Context, target RequestTarget) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml, text/xml")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("correios request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

var _ Transport = (*HTTPTransport)(nil)

package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/attornatus/backend/internal/domain/registry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// maxViaCEPResponseSize limits the response body size
const maxViaCEPResponseSize = 64 * 1024

// ViaCEPClient resolves Brazilian postal codes (CEP) through the ViaCEP web service
type ViaCEPClient struct {
	config     ViaCEPConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// ViaCEPClientOption configures a ViaCEPClient
type ViaCEPClientOption func(*ViaCEPClient)

// WithHTTPClient replaces the HTTP client used for lookups
func WithHTTPClient(client *http.Client) ViaCEPClientOption {
	return func(c *ViaCEPClient) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *zap.Logger) ViaCEPClientOption {
	return func(c *ViaCEPClient) {
		c.logger = logger
	}
}

// NewViaCEPClient creates a new ViaCEP client. Outgoing requests are traced.
func NewViaCEPClient(config ViaCEPConfig, opts ...ViaCEPClientOption) (*ViaCEPClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &ViaCEPClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("viacep")
	return c, nil
}

// Lookup implements registry.PostalLookup
func (c *ViaCEPClient) Lookup(ctx context.Context, postalCode string) (registry.PostalAddress, error) {
	code := registry.NormalizePostalCode(postalCode)
	endpoint := fmt.Sprintf("%s/ws/%s/json/", strings.TrimRight(c.config.BaseURL, "/"), code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return registry.PostalAddress{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("ViaCEP request failed", zap.String("postal_code", code), zap.Error(err))
		return registry.PostalAddress{}, fmt.Errorf("%w: %v", registry.ErrPostalLookupUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxViaCEPResponseSize))
	if err != nil {
		return registry.PostalAddress{}, fmt.Errorf("%w: read response: %v", registry.ErrPostalLookupUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		// ViaCEP answers 400 for malformed codes
		return registry.PostalAddress{}, registry.ErrPostalCodeNotFound
	case resp.StatusCode != http.StatusOK:
		c.logger.Warn("ViaCEP returned unexpected status",
			zap.String("postal_code", code),
			zap.Int("status", resp.StatusCode))
		return registry.PostalAddress{}, fmt.Errorf("%w: status %d", registry.ErrPostalLookupUnavailable, resp.StatusCode)
	}

	var payload viaCEPResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return registry.PostalAddress{}, fmt.Errorf("%w: decode response: %v", registry.ErrPostalLookupUnavailable, err)
	}
	if payload.Erro {
		return registry.PostalAddress{}, registry.ErrPostalCodeNotFound
	}

	resolved := payload.toPostalAddress()
	if resolved.PostalCode == "" {
		resolved.PostalCode = code
	}
	return resolved, nil
}

// toPostalAddress keeps street and city, NFC-normalized so composed and
// decomposed accents compare equal
func (r viaCEPResponse) toPostalAddress() registry.PostalAddress {
	return registry.PostalAddress{
		Street:     norm.NFC.String(strings.TrimSpace(r.Logradouro)),
		City:       norm.NFC.String(strings.TrimSpace(r.Localidade)),
		PostalCode: registry.NormalizePostalCode(r.CEP),
	}
}

// Ensure ViaCEPClient implements registry.PostalLookup
var _ registry.PostalLookup = (*ViaCEPClient)(nil)

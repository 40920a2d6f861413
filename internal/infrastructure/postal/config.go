package postal

import (
	"errors"
	"strings"
	"time"
)

// ViaCEPProductionURL is the public ViaCEP endpoint
const ViaCEPProductionURL = "https://viacep.com.br"

// Errors for ViaCEP configuration
var (
	ErrConfigMissingBaseURL = errors.New("postal: base URL is required")
	ErrConfigInvalidTimeout = errors.New("postal: timeout must be positive")
)

// ViaCEPConfig holds configuration for the ViaCEP lookup client
type ViaCEPConfig struct {
	// BaseURL is the scheme and host of the ViaCEP service, without the /ws path
	BaseURL string
	// Timeout bounds one lookup, including reading the body
	Timeout time.Duration
}

// DefaultViaCEPConfig returns a configuration pointing at the public service
func DefaultViaCEPConfig() ViaCEPConfig {
	return ViaCEPConfig{
		BaseURL: ViaCEPProductionURL,
		Timeout: 5 * time.Second,
	}
}

// Validate checks the configuration
func (c ViaCEPConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Timeout <= 0 {
		return ErrConfigInvalidTimeout
	}
	return nil
}

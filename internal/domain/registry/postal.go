package registry

import (
	"context"
	"strings"
)

// PostalAddress is what a postal-code lookup resolves to
type PostalAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// PostalLookup resolves a postal code to street and city.
// Implementations return ErrPostalCodeNotFound for unknown codes and
// ErrPostalLookupUnavailable when the upstream service cannot be reached.
type PostalLookup interface {
	Lookup(ctx context.Context, postalCode string) (PostalAddress, error)
}

// NormalizePostalCode strips surrounding spaces and the optional hyphen,
// turning "69098-384" into "69098384".
func NormalizePostalCode(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "-", "")
}

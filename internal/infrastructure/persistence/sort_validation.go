package persistence

import (
	"strings"

	"github.com/attornatus/backend/internal/domain/shared"
)

// ValidateSortOrder normalizes orderDir to ASC or DESC, falling back to
// defaultDir for empty or unknown input.
func ValidateSortOrder(orderDir, defaultDir string) string {
	switch strings.ToUpper(strings.TrimSpace(orderDir)) {
	case "ASC":
		return "ASC"
	case "DESC":
		return "DESC"
	}
	if strings.EqualFold(defaultDir, "DESC") {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField checks sortField against a whitelist and returns
// defaultField when it is empty or not allowed. Column names never reach SQL
// unless they are whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY expression for filter. The id column is
// appended as a tie-breaker so pages are stable.
func orderClause(filter shared.Filter, allowedFields map[string]bool, defaultField, defaultDir string) string {
	field := ValidateSortField(filter.OrderBy, allowedFields, defaultField)
	dir := ValidateSortOrder(filter.OrderDir, defaultDir)
	return field + " " + dir + ", id ASC"
}

// PersonSortFields contains allowed sort fields for persons
var PersonSortFields = map[string]bool{
	"name":       true,
	"birth_date": true,
	"created_at": true,
	"updated_at": true,
}

// AddressSortFields contains allowed sort fields for addresses
var AddressSortFields = map[string]bool{
	"city":        true,
	"street":      true,
	"postal_code": true,
	"created_at":  true,
	"updated_at":  true,
}

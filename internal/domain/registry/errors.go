package registry

import (
	"fmt"

	"github.com/attornatus/backend/internal/domain/shared"
)

// Error codes raised by the registry rules
const (
	CodeDuplicateIdentification = "DUPLICATE_IDENTIFICATION"
	CodeNotRegistered           = "NOT_REGISTERED"
	CodeAddressNotOwned         = "ADDRESS_NOT_OWNED"
	CodePostalCodeNotFound      = "POSTAL_CODE_NOT_FOUND"
	CodePostalLookupUnavailable = "POSTAL_LOOKUP_UNAVAILABLE"
)

// Sentinel errors; match them with errors.Is
var (
	ErrDuplicateIdentification = shared.NewDomainError(CodeDuplicateIdentification, "CPF already registered")
	ErrNotRegistered           = shared.NewDomainError(CodeNotRegistered, "Cannot update an unsaved person")
	ErrAddressNotOwned         = shared.NewDomainError(CodeAddressNotOwned, "Address does not belong to this person")
	ErrPostalCodeNotFound      = shared.NewDomainError(CodePostalCodeNotFound, "Postal code not found")
	ErrPostalLookupUnavailable = shared.NewDomainError(CodePostalLookupUnavailable, "Postal code lookup is unavailable")
)

// NewDuplicateIdentificationError reports an identification number that is already taken
func NewDuplicateIdentificationError(idNumber string) *shared.DomainError {
	return shared.NewDomainError(CodeDuplicateIdentification,
		fmt.Sprintf("CPF already registered: %s", idNumber))
}

// NewNotRegisteredError reports an operation on a person absent from the store
func NewNotRegisteredError(idNumber string) *shared.DomainError {
	return shared.NewDomainError(CodeNotRegistered,
		fmt.Sprintf("Person with CPF %s is not registered", idNumber))
}

// NewPersonNotFoundError reports a lookup miss by person ID
func NewPersonNotFoundError(id fmt.Stringer) *shared.DomainError {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Person %s not found", id))
}

// NewAddressNotFoundError reports a lookup miss by address ID
func NewAddressNotFoundError(id fmt.Stringer) *shared.DomainError {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Address %s not found", id))
}

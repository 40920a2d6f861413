package registry

import (
	"time"

	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Address is a postal address owned by exactly one Person
type Address struct {
	shared.BaseEntity
	Street      string
	PostalCode  string
	HouseNumber int
	City        string
	IsMain      bool
	// PersonID points back to the owner. It stays nil until the address is
	// linked to a person.
	PersonID *uuid.UUID
}

// NewAddress builds an unsaved, non-main address from a resolved lookup and
// the house number supplied by the caller.
func NewAddress(resolved PostalAddress, houseNumber int) *Address {
	return &Address{
		Street:      resolved.Street,
		PostalCode:  resolved.PostalCode,
		HouseNumber: houseNumber,
		City:        resolved.City,
		IsMain:      false,
	}
}

// LinkTo sets the owning person
func (a *Address) LinkTo(personID uuid.UUID) {
	id := personID
	a.PersonID = &id
	a.UpdatedAt = time.Now()
}

// IsOwnedBy reports whether the address back-references personID
func (a *Address) IsOwnedBy(personID uuid.UUID) bool {
	return a.PersonID != nil && *a.PersonID == personID
}

// Promote marks the address as main
func (a *Address) Promote() {
	a.IsMain = true
	a.UpdatedAt = time.Now()
}

// Demote clears the main flag
func (a *Address) Demote() {
	a.IsMain = false
	a.UpdatedAt = time.Now()
}

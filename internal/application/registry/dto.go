package registry

import (
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/google/uuid"
)

// AddressResponse represents an address in API responses
type AddressResponse struct {
	ID          uuid.UUID `json:"id"`
	Street      string    `json:"street"`
	PostalCode  string    `json:"postal_code"`
	HouseNumber int       `json:"house_number"`
	City        string    `json:"city"`
	IsMain      bool      `json:"is_main"`
}

// PersonResponse represents a person and their address set in API responses
type PersonResponse struct {
	ID                   uuid.UUID         `json:"id"`
	Name                 string            `json:"name"`
	IdentificationNumber string            `json:"identification_number"`
	BirthDate            string            `json:"birth_date" example:"1998-11-25"`
	Addresses            []AddressResponse `json:"addresses"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	Version              int               `json:"version"`
}

// PersonListResponse is a person in search results, without the address set
type PersonListResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	IdentificationNumber string    `json:"identification_number"`
	BirthDate            string    `json:"birth_date" example:"1998-11-25"`
}

// ToAddressResponse converts a domain Address to AddressResponse
func ToAddressResponse(a *registry.Address) AddressResponse {
	return AddressResponse{
		ID:          a.ID,
		Street:      a.Street,
		PostalCode:  a.PostalCode,
		HouseNumber: a.HouseNumber,
		City:        a.City,
		IsMain:      a.IsMain,
	}
}

// ToPersonResponse converts a domain Person to PersonResponse.
// The main address comes first.
func ToPersonResponse(p *registry.Person) PersonResponse {
	addresses := make([]AddressResponse, 0, len(p.Addresses))
	if main := p.MainAddress(); main != nil {
		addresses = append(addresses, ToAddressResponse(main))
	}
	for _, a := range p.Addresses {
		if a.IsMain {
			continue
		}
		addresses = append(addresses, ToAddressResponse(a))
	}
	return PersonResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		IdentificationNumber: p.IdentificationNumber,
		BirthDate:            formatDate(p.BirthDate),
		Addresses:            addresses,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		Version:              p.Version,
	}
}

// ToPersonListResponse converts a domain Person to PersonListResponse
func ToPersonListResponse(p registry.Person) PersonListResponse {
	return PersonListResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		IdentificationNumber: p.IdentificationNumber,
		BirthDate:            formatDate(p.BirthDate),
	}
}

// ToAddressListResponse converts a domain Address value to AddressResponse
func ToAddressListResponse(a registry.Address) AddressResponse {
	return ToAddressResponse(&a)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(registry.DateLayout)
}

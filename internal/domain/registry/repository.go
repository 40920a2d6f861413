package registry

import (
	"context"

	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PersonRepository defines the interface for person persistence
type PersonRepository interface {
	// FindByID loads a person with its address set.
	// Returns shared.ErrNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Person, error)

	// FindByName returns a page of persons whose name contains pattern,
	// ignoring case. An empty pattern matches everybody.
	FindByName(ctx context.Context, pattern string, filter shared.Filter) (shared.Paginated[Person], error)

	// ExistsByIdentificationNumber checks CPF uniqueness
	ExistsByIdentificationNumber(ctx context.Context, idNumber string) (bool, error)

	// Save inserts or updates the person row. Addresses are saved through
	// AddressRepository; Save never writes them.
	Save(ctx context.Context, person *Person) error
}

// AddressRepository defines the interface for address persistence
type AddressRepository interface {
	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)

	// FindByPerson returns a page of the addresses owned by personID
	FindByPerson(ctx context.Context, personID uuid.UUID, filter shared.Filter) (shared.Paginated[Address], error)

	// Save inserts or updates a single address
	Save(ctx context.Context, address *Address) error

	// ClearMain removes the main flag from every address owned by personID
	ClearMain(ctx context.Context, personID uuid.UUID) error
}

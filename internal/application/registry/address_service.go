package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/attornatus/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressService builds addresses from postal-code lookups and reads them back
type AddressService struct {
	addressRepo registry.AddressRepository
	lookup      registry.PostalLookup
	logger      *zap.Logger
}

// NewAddressService creates a new AddressService
func NewAddressService(
	addressRepo registry.AddressRepository,
	lookup registry.PostalLookup,
	logger *zap.Logger,
) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{
		addressRepo: addressRepo,
		lookup:      lookup,
		logger:      logger,
	}
}

// Resolve looks up the postal code and builds a non-main address with the
// given house number. The address is not stored; the person operation that
// links it writes it once. A blank postal code and a missing house number are
// reported together in one ValidationError.
func (s *AddressService) Resolve(ctx context.Context, postalCode string, houseNumber *int) (*registry.Address, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "address", "resolve")
	defer span.End()

	if err := registry.ValidateAddress(registry.AddressInput{
		PostalCode:  postalCode,
		HouseNumber: houseNumber,
	}); err != nil {
		return nil, err
	}

	code := registry.NormalizePostalCode(postalCode)
	telemetry.SetAttribute(span, telemetry.SpanAttrPostalCode, code)

	resolved, err := s.lookup.Lookup(ctx, code)
	if err != nil {
		if errors.Is(err, registry.ErrPostalCodeNotFound) {
			return nil, shared.NewValidationError(shared.FieldViolation{
				Field:   "postal_code",
				Message: fmt.Sprintf("Zipcode %s not found", code),
			})
		}
		telemetry.RecordError(span, err)
		s.logger.Warn("Postal code lookup failed",
			zap.String("postal_code", code),
			zap.Error(err))
		return nil, fmt.Errorf("resolve postal code %s: %w", code, err)
	}
	if resolved.PostalCode == "" {
		resolved.PostalCode = code
	}

	address := registry.NewAddress(resolved, *houseNumber)
	s.logger.Debug("Address resolved", zap.String("postal_code", address.PostalCode))

	return address, nil
}

// FindByID returns the address or a not-found error
func (s *AddressService) FindByID(ctx context.Context, id uuid.UUID) (*registry.Address, error) {
	address, err := s.addressRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, registry.NewAddressNotFoundError(id)
		}
		return nil, err
	}
	return address, nil
}

// ListForPerson returns a page of the person's addresses
func (s *AddressService) ListForPerson(ctx context.Context, person *registry.Person, filter shared.Filter) (shared.Paginated[registry.Address], error) {
	return s.addressRepo.FindByPerson(ctx, person.ID, filter.WithDefaults())
}

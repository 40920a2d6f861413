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

// PersonService enforces the registry rules: CPF uniqueness, membership
// checks and the single-main-address invariant.
type PersonService struct {
	personRepo registry.PersonRepository
	txScope    TransactionScope
	recorder   EventRecorder
	logger     *zap.Logger
}

var errMissingAddress = shared.NewValidationError(shared.FieldViolation{
	Field:   "address",
	Message: "Address must not be null",
})

// PersonServiceOption configures optional collaborators
type PersonServiceOption func(*PersonService)

// WithEventRecorder reports business events to r
func WithEventRecorder(r EventRecorder) PersonServiceOption {
	return func(s *PersonService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewPersonService creates a new PersonService
func NewPersonService(
	personRepo registry.PersonRepository,
	txScope TransactionScope,
	logger *zap.Logger,
	opts ...PersonServiceOption,
) *PersonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PersonService{
		personRepo: personRepo,
		txScope:    txScope,
		recorder:   noopRecorder{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureUnregistered fails with a duplicate error when idNumber is taken.
// Callers use it to reject a registration before resolving its address.
func (s *PersonService) EnsureUnregistered(ctx context.Context, idNumber string) error {
	idNumber = registry.NormalizeIdentificationNumber(idNumber)
	exists, err := s.personRepo.ExistsByIdentificationNumber(ctx, idNumber)
	if err != nil {
		return fmt.Errorf("check identification number: %w", err)
	}
	if exists {
		return registry.NewDuplicateIdentificationError(idNumber)
	}
	return nil
}

// Register stores a new person whose only address is address, made main.
// The person and the address are written in one transaction, so nothing is
// left behind when the identification number is already taken.
func (s *PersonService) Register(ctx context.Context, in registry.PersonInput, address *registry.Address) (*registry.Person, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "register")
	defer span.End()

	if address == nil {
		return nil, errMissingAddress
	}

	if err := s.EnsureUnregistered(ctx, in.IdentificationNumber); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	person := registry.NewPerson(in.Name, in.IdentificationNumber, in.ParsedBirthDate(), address)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.PersonRepo().Save(ctx, person); err != nil {
			return fmt.Errorf("save person: %w", err)
		}
		address.LinkTo(person.ID)
		if err := repos.AddressRepo().Save(ctx, address); err != nil {
			return fmt.Errorf("save main address: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to register person", zap.Error(err))
		return nil, err
	}

	s.recorder.PersonRegistered(ctx)
	telemetry.SetAttributes(span, telemetry.SpanAttrPersonID, person.ID.String())
	s.logger.Info("Person registered",
		zap.String("person_id", person.ID.String()),
		zap.String("address_id", address.ID.String()))

	return person, nil
}

// FindByID loads a person with its address set
func (s *PersonService) FindByID(ctx context.Context, id uuid.UUID) (*registry.Person, error) {
	person, err := s.personRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, registry.NewPersonNotFoundError(id)
		}
		return nil, err
	}
	return person, nil
}

// Update applies the patch to a registered person. The identification
// number is never changed.
func (s *PersonService) Update(ctx context.Context, person *registry.Person, patch registry.PersonPatch) (*registry.Person, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "update",
		telemetry.SpanAttrPersonID, person.ID.String())
	defer span.End()

	if err := s.ensureRegistered(ctx, person); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	person.Update(patch)
	if err := s.personRepo.Save(ctx, person); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save person: %w", err)
	}

	s.logger.Info("Person updated", zap.String("person_id", person.ID.String()))
	return person, nil
}

// FindByName returns a page of persons whose name contains pattern, ignoring case
func (s *PersonService) FindByName(ctx context.Context, pattern string, filter shared.Filter) (shared.Paginated[registry.Person], error) {
	filter = filter.WithDefaults()
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "find_by_name",
		telemetry.SpanAttrSearchPattern, pattern,
		telemetry.SpanAttrPage, filter.Page)
	defer span.End()

	page, err := s.personRepo.FindByName(ctx, pattern, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[registry.Person]{}, err
	}
	return page, nil
}

// AddAddress links an unsaved address to a registered person and stores it.
// The new address does not become main.
func (s *PersonService) AddAddress(ctx context.Context, person *registry.Person, address *registry.Address) (*registry.Person, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "add_address")
	defer span.End()

	if address == nil {
		return nil, errMissingAddress
	}

	if err := s.ensureRegistered(ctx, person); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	person.AddAddress(address)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.AddressRepo().Save(ctx, address); err != nil {
			return fmt.Errorf("save address: %w", err)
		}
		if err := repos.PersonRepo().Save(ctx, person); err != nil {
			return fmt.Errorf("save person: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recorder.AddressAdded(ctx)
	s.logger.Info("Address added",
		zap.String("person_id", person.ID.String()),
		zap.String("address_id", address.ID.String()))

	return person, nil
}

// SetAddressAsMain makes address the person's only main address. The
// demotion of the others and the promotion commit together.
func (s *PersonService) SetAddressAsMain(ctx context.Context, person *registry.Person, address *registry.Address) (*registry.Person, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "person", "set_main_address",
		telemetry.SpanAttrPersonID, person.ID.String(),
		telemetry.SpanAttrAddressID, address.ID.String())
	defer span.End()

	if err := s.ensureRegistered(ctx, person); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !person.HasAddress(address.ID) {
		telemetry.RecordError(span, registry.ErrAddressNotOwned)
		return nil, registry.ErrAddressNotOwned
	}

	if err := person.SetMainAddress(address.ID); err != nil {
		return nil, err
	}

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.AddressRepo().ClearMain(ctx, person.ID); err != nil {
			return fmt.Errorf("clear main address: %w", err)
		}
		if err := repos.AddressRepo().Save(ctx, person.MainAddress()); err != nil {
			return fmt.Errorf("save main address: %w", err)
		}
		if err := repos.PersonRepo().Save(ctx, person); err != nil {
			return fmt.Errorf("save person: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recorder.MainAddressChanged(ctx)
	s.logger.Info("Main address changed",
		zap.String("person_id", person.ID.String()),
		zap.String("address_id", address.ID.String()))

	return person, nil
}

func (s *PersonService) ensureRegistered(ctx context.Context, person *registry.Person) error {
	exists, err := s.personRepo.ExistsByIdentificationNumber(ctx, person.IdentificationNumber)
	if err != nil {
		return fmt.Errorf("check identification number: %w", err)
	}
	if !exists {
		return registry.NewNotRegisteredError(person.IdentificationNumber)
	}
	return nil
}

package registry

import (
	"context"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPersonRepository is a mock implementation of registry.PersonRepository
type MockPersonRepository struct {
	mock.Mock
}

func (m *MockPersonRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Person), args.Error(1)
}

func (m *MockPersonRepository) FindByName(ctx context.Context, pattern string, filter shared.Filter) (shared.Paginated[registry.Person], error) {
	args := m.Called(ctx, pattern, filter)
	return args.Get(0).(shared.Paginated[registry.Person]), args.Error(1)
}

func (m *MockPersonRepository) ExistsByIdentificationNumber(ctx context.Context, idNumber string) (bool, error) {
	args := m.Called(ctx, idNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPersonRepository) Save(ctx context.Context, person *registry.Person) error {
	args := m.Called(ctx, person)
	return args.Error(0)
}

// MockAddressRepository is a mock implementation of registry.AddressRepository
type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*registry.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Address), args.Error(1)
}

func (m *MockAddressRepository) FindByPerson(ctx context.Context, personID uuid.UUID, filter shared.Filter) (shared.Paginated[registry.Address], error) {
	args := m.Called(ctx, personID, filter)
	return args.Get(0).(shared.Paginated[registry.Address]), args.Error(1)
}

func (m *MockAddressRepository) Save(ctx context.Context, address *registry.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) ClearMain(ctx context.Context, personID uuid.UUID) error {
	args := m.Called(ctx, personID)
	return args.Error(0)
}

// MockPostalLookup is a mock implementation of registry.PostalLookup
type MockPostalLookup struct {
	mock.Mock
}

func (m *MockPostalLookup) Lookup(ctx context.Context, postalCode string) (registry.PostalAddress, error) {
	args := m.Called(ctx, postalCode)
	return args.Get(0).(registry.PostalAddress), args.Error(1)
}

// MockEventRecorder is a mock implementation of EventRecorder
type MockEventRecorder struct {
	mock.Mock
}

func (m *MockEventRecorder) PersonRegistered(ctx context.Context)   { m.Called(ctx) }
func (m *MockEventRecorder) AddressAdded(ctx context.Context)       { m.Called(ctx) }
func (m *MockEventRecorder) MainAddressChanged(ctx context.Context) { m.Called(ctx) }

// fakeTransactionScope runs fn directly against the mock repositories and
// counts how many units of work were started.
type fakeTransactionScope struct {
	persons   *MockPersonRepository
	addresses *MockAddressRepository
	calls     int
}

func (f *fakeTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	f.calls++
	return fn(f)
}

func (f *fakeTransactionScope) PersonRepo() registry.PersonRepository   { return f.persons }
func (f *fakeTransactionScope) AddressRepo() registry.AddressRepository { return f.addresses }

// savedAs makes a mocked Save assign an ID the way the store does
func savedAs(id uuid.UUID) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		switch e := args.Get(1).(type) {
		case *registry.Person:
			if e.ID == uuid.Nil {
				e.ID = id
			}
		case *registry.Address:
			if e.ID == uuid.Nil {
				e.ID = id
			}
		}
	}
}

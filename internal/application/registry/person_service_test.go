package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testCPF = "486.031.170-12"

type personServiceFixture struct {
	persons   *MockPersonRepository
	addresses *MockAddressRepository
	tx        *fakeTransactionScope
	recorder  *MockEventRecorder
	service   *PersonService
}

func newPersonServiceFixture() *personServiceFixture {
	f := &personServiceFixture{
		persons:   new(MockPersonRepository),
		addresses: new(MockAddressRepository),
		recorder:  new(MockEventRecorder),
	}
	f.tx = &fakeTransactionScope{persons: f.persons, addresses: f.addresses}
	f.service = NewPersonService(f.persons, f.tx, nil, WithEventRecorder(f.recorder))
	return f
}

func (f *personServiceFixture) assertExpectations(t *testing.T) {
	f.persons.AssertExpectations(t)
	f.addresses.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
}

func resolvedAddress() *registry.Address {
	a := registry.NewAddress(registry.PostalAddress{
		Street:     "Rua Hortelã-do-Campo",
		City:       "Manaus",
		PostalCode: "69098384",
	}, 123)
	a.ID = uuid.New()
	return a
}

func registeredPerson(addresses ...*registry.Address) *registry.Person {
	var first *registry.Address
	if len(addresses) > 0 {
		first = addresses[0]
	}
	p := registry.NewPerson("Fulano", testCPF, time.Date(1998, 11, 25, 0, 0, 0, 0, time.UTC), first)
	p.ID = uuid.New()
	for _, a := range addresses {
		a.LinkTo(p.ID)
	}
	for _, a := range addresses[min(1, len(addresses)):] {
		p.AddAddress(a)
	}
	return p
}

func personInput() registry.PersonInput {
	return registry.PersonInput{
		Name:                 "Fulano",
		IdentificationNumber: testCPF,
		BirthDate:            "1998-11-25",
	}
}

func TestPersonService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a fresh person with a main address", func(t *testing.T) {
		f := newPersonServiceFixture()
		address := resolvedAddress()
		personID := uuid.New()

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(false, nil).Once()
		f.persons.On("Save", mock.Anything, mock.AnythingOfType("*registry.Person")).
			Run(savedAs(personID)).Return(nil).Once()
		f.addresses.On("Save", mock.Anything, address).Return(nil).Once()
		f.recorder.On("PersonRegistered", mock.Anything).Once()

		person, err := f.service.Register(ctx, personInput(), address)
		require.NoError(t, err)

		assert.Equal(t, personID, person.ID)
		require.Len(t, person.Addresses, 1)
		assert.True(t, person.Addresses[0].IsMain)
		assert.Equal(t, "Rua Hortelã-do-Campo", person.Addresses[0].Street)
		assert.Equal(t, 123, person.Addresses[0].HouseNumber)
		assert.True(t, address.IsOwnedBy(personID))
		assert.Equal(t, 1, f.tx.calls)
		f.assertExpectations(t)
	})

	t.Run("duplicate CPF performs no write", func(t *testing.T) {
		f := newPersonServiceFixture()
		address := resolvedAddress()

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()

		person, err := f.service.Register(ctx, personInput(), address)
		assert.Nil(t, person)
		assert.ErrorIs(t, err, registry.ErrDuplicateIdentification)
		assert.False(t, address.IsMain)
		assert.Equal(t, 0, f.tx.calls)
		f.persons.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.addresses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("bare CPF is checked in canonical form", func(t *testing.T) {
		f := newPersonServiceFixture()
		in := personInput()
		in.IdentificationNumber = "48603117012"

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()

		_, err := f.service.Register(ctx, in, resolvedAddress())
		assert.ErrorIs(t, err, registry.ErrDuplicateIdentification)
		f.assertExpectations(t)
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		f := newPersonServiceFixture()
		boom := errors.New("connection reset")

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(false, nil).Once()
		f.persons.On("Save", mock.Anything, mock.Anything).Return(boom).Once()

		_, err := f.service.Register(ctx, personInput(), resolvedAddress())
		assert.ErrorIs(t, err, boom)
		f.addresses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		f.recorder.AssertNotCalled(t, "PersonRegistered", mock.Anything)
	})

	t.Run("missing address is a validation error", func(t *testing.T) {
		f := newPersonServiceFixture()
		_, err := f.service.Register(ctx, personInput(), nil)
		assert.ErrorIs(t, err, shared.ErrValidation)
		f.persons.AssertNotCalled(t, "ExistsByIdentificationNumber", mock.Anything, mock.Anything)
	})
}

func TestPersonService_FindByID(t *testing.T) {
	ctx := context.Background()
	f := newPersonServiceFixture()
	person := registeredPerson(resolvedAddress())
	missing := uuid.New()

	f.persons.On("FindByID", mock.Anything, person.ID).Return(person, nil).Once()
	f.persons.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound).Once()

	found, err := f.service.FindByID(ctx, person.ID)
	require.NoError(t, err)
	assert.Same(t, person, found)

	_, err = f.service.FindByID(ctx, missing)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Message, missing.String())
	f.assertExpectations(t)
}

func TestPersonService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("blank name keeps name and new birth date applies", func(t *testing.T) {
		f := newPersonServiceFixture()
		person := registeredPerson(resolvedAddress())
		newDate := time.Date(1999, 1, 2, 0, 0, 0, 0, time.UTC)

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()
		f.persons.On("Save", mock.Anything, person).Return(nil).Once()

		updated, err := f.service.Update(ctx, person, registry.PersonPatch{
			Name:      shared.Some(""),
			BirthDate: shared.Some(newDate),
		})
		require.NoError(t, err)
		assert.Equal(t, "Fulano", updated.Name)
		assert.Equal(t, newDate, updated.BirthDate)
		assert.Equal(t, testCPF, updated.IdentificationNumber)
		f.assertExpectations(t)
	})

	t.Run("unregistered person is rejected", func(t *testing.T) {
		f := newPersonServiceFixture()
		person := registeredPerson(resolvedAddress())

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(false, nil).Once()

		_, err := f.service.Update(ctx, person, registry.PersonPatch{Name: shared.Some("Beltrano")})
		assert.ErrorIs(t, err, registry.ErrNotRegistered)
		assert.Equal(t, "Fulano", person.Name)
		f.persons.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPersonService_FindByName(t *testing.T) {
	ctx := context.Background()
	f := newPersonServiceFixture()
	page := shared.NewPaginated([]registry.Person{*registeredPerson()}, 1, 1, 20)

	f.persons.On("FindByName", mock.Anything, "ful", shared.Filter{Page: 1, PageSize: 20}).Return(page, nil).Once()

	got, err := f.service.FindByName(ctx, "ful", shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total)
	f.assertExpectations(t)
}

func TestPersonService_AddAddress(t *testing.T) {
	ctx := context.Background()

	t.Run("adds a non-main address", func(t *testing.T) {
		f := newPersonServiceFixture()
		person := registeredPerson(resolvedAddress())
		extra := resolvedAddress()

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()
		f.addresses.On("Save", mock.Anything, extra).Return(nil).Once()
		f.persons.On("Save", mock.Anything, person).Return(nil).Once()
		f.recorder.On("AddressAdded", mock.Anything).Once()

		updated, err := f.service.AddAddress(ctx, person, extra)
		require.NoError(t, err)
		assert.Len(t, updated.Addresses, 2)
		assert.False(t, extra.IsMain)
		assert.True(t, extra.IsOwnedBy(person.ID))
		assert.Equal(t, 1, updated.MainAddressCount())
		f.assertExpectations(t)
	})

	t.Run("unregistered person gets no address write", func(t *testing.T) {
		f := newPersonServiceFixture()
		person := registeredPerson(resolvedAddress())
		extra := resolvedAddress()

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(false, nil).Once()

		_, err := f.service.AddAddress(ctx, person, extra)
		assert.ErrorIs(t, err, registry.ErrNotRegistered)
		assert.Len(t, person.Addresses, 1)
		assert.Equal(t, 0, f.tx.calls)
		f.addresses.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPersonService_SetAddressAsMain(t *testing.T) {
	ctx := context.Background()

	t.Run("exactly one main address afterwards", func(t *testing.T) {
		f := newPersonServiceFixture()
		first, second, third := resolvedAddress(), resolvedAddress(), resolvedAddress()
		person := registeredPerson(first, second, third)

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()
		f.addresses.On("ClearMain", mock.Anything, person.ID).Return(nil).Once()
		f.addresses.On("Save", mock.Anything, second).Return(nil).Once()
		f.persons.On("Save", mock.Anything, person).Return(nil).Once()
		f.recorder.On("MainAddressChanged", mock.Anything).Once()

		updated, err := f.service.SetAddressAsMain(ctx, person, second)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.MainAddressCount())
		assert.Same(t, second, updated.MainAddress())
		assert.False(t, first.IsMain)
		assert.Equal(t, 1, f.tx.calls)
		f.assertExpectations(t)
	})

	t.Run("address outside the set is rejected", func(t *testing.T) {
		f := newPersonServiceFixture()
		first := resolvedAddress()
		person := registeredPerson(first)
		stranger := resolvedAddress()

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()

		_, err := f.service.SetAddressAsMain(ctx, person, stranger)
		assert.ErrorIs(t, err, registry.ErrAddressNotOwned)
		assert.True(t, first.IsMain)
		assert.Equal(t, 0, f.tx.calls)
		f.addresses.AssertNotCalled(t, "ClearMain", mock.Anything, mock.Anything)
	})

	t.Run("unregistered person is rejected before membership", func(t *testing.T) {
		f := newPersonServiceFixture()
		first := resolvedAddress()
		person := registeredPerson(first)

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(false, nil).Once()

		_, err := f.service.SetAddressAsMain(ctx, person, first)
		assert.ErrorIs(t, err, registry.ErrNotRegistered)
	})

	t.Run("failed write surfaces the error", func(t *testing.T) {
		f := newPersonServiceFixture()
		first, second := resolvedAddress(), resolvedAddress()
		person := registeredPerson(first, second)
		boom := errors.New("deadlock detected")

		f.persons.On("ExistsByIdentificationNumber", mock.Anything, testCPF).Return(true, nil).Once()
		f.addresses.On("ClearMain", mock.Anything, person.ID).Return(boom).Once()

		_, err := f.service.SetAddressAsMain(ctx, person, second)
		assert.ErrorIs(t, err, boom)
		f.recorder.AssertNotCalled(t, "MainAddressChanged", mock.Anything)
	})
}

package models

import (
	"testing"
	"time"

	"github.com/attornatus/backend/internal/domain/registry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryModels_TableName(t *testing.T) {
	assert.Equal(t, "persons", PersonModel{}.TableName())
	assert.Equal(t, "addresses", AddressModel{}.TableName())
}

func TestPersonModel_ToDomain(t *testing.T) {
	personID := uuid.New()
	now := time.Now()

	model := &PersonModel{
		AggregateModel: AggregateModel{
			BaseModel: BaseModel{ID: personID, CreatedAt: now, UpdatedAt: now},
			Version:   3,
		},
		Name:                 "Fulano",
		IdentificationNumber: "486.031.170-12",
		BirthDate:            time.Date(1998, 11, 25, 0, 0, 0, 0, time.UTC),
		Addresses: []AddressModel{
			{BaseModel: BaseModel{ID: uuid.New()}, PostalCode: "69098384", HouseNumber: 1, IsMain: true, PersonID: &personID},
			{BaseModel: BaseModel{ID: uuid.New()}, PostalCode: "69098384", HouseNumber: 2, PersonID: &personID},
		},
	}

	p := model.ToDomain()

	assert.Equal(t, personID, p.ID)
	assert.Equal(t, 3, p.Version)
	assert.Equal(t, "486.031.170-12", p.IdentificationNumber)
	require.Len(t, p.Addresses, 2)
	assert.Equal(t, 1, p.MainAddressCount())
	assert.True(t, p.Addresses[1].IsOwnedBy(personID))
}

func TestPersonModel_FromDomain(t *testing.T) {
	addr := registry.NewAddress(registry.PostalAddress{Street: "Rua A", City: "Manaus", PostalCode: "69098384"}, 5)
	p := registry.NewPerson("Fulano", "48603117012", time.Date(1998, 11, 25, 22, 0, 0, 0, time.UTC), addr)
	p.ID = uuid.New()

	m := PersonModelFromDomain(p)

	assert.Equal(t, p.ID, m.ID)
	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "486.031.170-12", m.IdentificationNumber)
	assert.Equal(t, time.Date(1998, 11, 25, 0, 0, 0, 0, time.UTC), m.BirthDate)
	assert.Empty(t, m.Addresses)
}

func TestAddressModel_RoundTrip(t *testing.T) {
	owner := uuid.New()
	addr := registry.NewAddress(registry.PostalAddress{Street: "Rua A", City: "Manaus", PostalCode: "69098384"}, 5)
	addr.ID = uuid.New()
	addr.LinkTo(owner)
	addr.Promote()

	back := AddressModelFromDomain(addr).ToDomain()

	assert.Equal(t, addr.ID, back.ID)
	assert.Equal(t, "Rua A", back.Street)
	assert.True(t, back.IsMain)
	assert.True(t, back.IsOwnedBy(owner))
}

package registry

import (
	"testing"
	"time"

	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func savedAddress(isMain bool) *Address {
	a := NewAddress(PostalAddress{Street: "Rua A", City: "Manaus", PostalCode: "69098384"}, 10)
	a.ID = uuid.New()
	a.IsMain = isMain
	return a
}

func TestNewPerson(t *testing.T) {
	birth := time.Date(1998, 11, 25, 15, 30, 0, 0, time.Local)

	t.Run("forces the sole address to main", func(t *testing.T) {
		addr := savedAddress(false)
		p := NewPerson("  Fulano ", "48603117012", birth, addr)

		require.Len(t, p.Addresses, 1)
		assert.True(t, p.Addresses[0].IsMain)
		assert.Equal(t, "Fulano", p.Name)
		assert.Equal(t, "486.031.170-12", p.IdentificationNumber)
		assert.Equal(t, time.Date(1998, 11, 25, 0, 0, 0, 0, time.UTC), p.BirthDate)
		assert.False(t, p.IsPersisted())
		assert.Equal(t, 1, p.GetVersion())
	})

	t.Run("without address has empty set", func(t *testing.T) {
		p := NewPerson("Fulano", "486.031.170-12", birth, nil)
		assert.Empty(t, p.Addresses)
		assert.Nil(t, p.MainAddress())
	})
}

func TestPerson_Update(t *testing.T) {
	original := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("blank name keeps the current name", func(t *testing.T) {
		p := NewPerson("Fulano", "486.031.170-12", original, nil)
		p.Update(PersonPatch{Name: shared.Some("   ")})
		assert.Equal(t, "Fulano", p.Name)
		assert.Equal(t, original, p.BirthDate)
	})

	t.Run("absent fields change nothing", func(t *testing.T) {
		p := NewPerson("Fulano", "486.031.170-12", original, nil)
		p.Update(PersonPatch{})
		assert.Equal(t, "Fulano", p.Name)
		assert.Equal(t, original, p.BirthDate)
	})

	t.Run("present values replace current ones", func(t *testing.T) {
		p := NewPerson("Fulano", "486.031.170-12", original, nil)
		newDate := time.Date(1991, 2, 3, 0, 0, 0, 0, time.UTC)
		p.Update(PersonPatch{Name: shared.Some("Beltrano"), BirthDate: shared.Some(newDate)})
		assert.Equal(t, "Beltrano", p.Name)
		assert.Equal(t, newDate, p.BirthDate)
		assert.Equal(t, "486.031.170-12", p.IdentificationNumber)
	})
}

func TestPerson_AddAddress(t *testing.T) {
	p := NewPerson("Fulano", "486.031.170-12", time.Now(), savedAddress(false))
	p.ID = uuid.New()

	extra := savedAddress(false)
	p.AddAddress(extra)

	require.Len(t, p.Addresses, 2)
	assert.False(t, extra.IsMain)
	assert.True(t, extra.IsOwnedBy(p.ID))
	assert.Equal(t, 1, p.MainAddressCount())

	t.Run("adding the same address twice keeps set semantics", func(t *testing.T) {
		p.AddAddress(extra)
		assert.Len(t, p.Addresses, 2)
	})
}

func TestPerson_SetMainAddress(t *testing.T) {
	first := savedAddress(false)
	p := NewPerson("Fulano", "486.031.170-12", time.Now(), first)
	second := savedAddress(false)
	third := savedAddress(false)
	p.AddAddress(second)
	p.AddAddress(third)

	t.Run("promotes the target and demotes the rest", func(t *testing.T) {
		require.NoError(t, p.SetMainAddress(third.ID))
		assert.Equal(t, 1, p.MainAddressCount())
		assert.Same(t, third, p.MainAddress())
		assert.False(t, first.IsMain)
		assert.False(t, second.IsMain)
	})

	t.Run("rejects an address outside the set", func(t *testing.T) {
		err := p.SetMainAddress(uuid.New())
		assert.ErrorIs(t, err, ErrAddressNotOwned)
		assert.Same(t, third, p.MainAddress())
	})

	t.Run("rejects the nil id", func(t *testing.T) {
		assert.ErrorIs(t, p.SetMainAddress(uuid.Nil), ErrAddressNotOwned)
	})
}

func TestDateOnly(t *testing.T) {
	assert.True(t, DateOnly(time.Time{}).IsZero())
	in := time.Date(2000, 5, 6, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2000, 5, 6, 0, 0, 0, 0, time.UTC), DateOnly(in))
}

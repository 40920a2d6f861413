package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPersonResponse(t *testing.T) {
	first, second := resolvedAddress(), resolvedAddress()
	person := registeredPerson(first, second)
	require.NoError(t, person.SetMainAddress(second.ID))

	resp := ToPersonResponse(person)

	assert.Equal(t, "1998-11-25", resp.BirthDate)
	assert.Equal(t, testCPF, resp.IdentificationNumber)
	require.Len(t, resp.Addresses, 2)
	assert.Equal(t, second.ID, resp.Addresses[0].ID)
	assert.True(t, resp.Addresses[0].IsMain)
	assert.False(t, resp.Addresses[1].IsMain)
}

func TestToPersonListResponse(t *testing.T) {
	person := registeredPerson()
	resp := ToPersonListResponse(*person)
	assert.Equal(t, person.ID, resp.ID)
	assert.Equal(t, "Fulano", resp.Name)
}

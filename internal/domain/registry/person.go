package registry

import (
	"strings"
	"time"

	"github.com/attornatus/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Person is the aggregate root of the registry. It exclusively owns its
// address set. Once the set is non-empty exactly one address is main.
type Person struct {
	shared.BaseAggregateRoot
	Name                 string
	IdentificationNumber string
	BirthDate            time.Time
	Addresses            []*Address
}

// NewPerson builds an unsaved person whose address set is exactly {main}.
// The address is forced to main regardless of its current flag.
func NewPerson(name, idNumber string, birthDate time.Time, main *Address) *Person {
	p := &Person{
		BaseAggregateRoot: shared.BaseAggregateRoot{Version: 1},
		Name:              strings.TrimSpace(name),
		// Canonical form so "48603117012" and "486.031.170-12" collide.
		IdentificationNumber: NormalizeIdentificationNumber(idNumber),
		BirthDate:            DateOnly(birthDate),
	}
	if main != nil {
		main.Promote()
		p.Addresses = []*Address{main}
	}
	return p
}

// Update applies a patch. A blank or absent name and an absent birth date
// leave the current values untouched. The identification number never changes.
func (p *Person) Update(patch PersonPatch) {
	if name, ok := patch.Name.Get(); ok && strings.TrimSpace(name) != "" {
		p.Name = strings.TrimSpace(name)
	}
	if birthDate, ok := patch.BirthDate.Get(); ok {
		p.BirthDate = DateOnly(birthDate)
	}
	p.UpdatedAt = time.Now()
}

// HasAddress reports whether an address with the given ID is in the set
func (p *Person) HasAddress(addressID uuid.UUID) bool {
	return p.findAddress(addressID) != nil
}

// AddAddress inserts the address into the set. Adding an address already in
// the set is a no-op. The address keeps its main flag as-is.
func (p *Person) AddAddress(address *Address) {
	if address.IsPersisted() && p.HasAddress(address.ID) {
		return
	}
	if p.IsPersisted() {
		address.LinkTo(p.ID)
	}
	p.Addresses = append(p.Addresses, address)
}

// SetMainAddress demotes every address in the set and promotes the one with
// the given ID.
func (p *Person) SetMainAddress(addressID uuid.UUID) error {
	target := p.findAddress(addressID)
	if target == nil {
		return ErrAddressNotOwned
	}
	for _, a := range p.Addresses {
		a.Demote()
	}
	target.Promote()
	p.UpdatedAt = time.Now()
	return nil
}

// MainAddress returns the main address, or nil when the set is empty
func (p *Person) MainAddress() *Address {
	for _, a := range p.Addresses {
		if a.IsMain {
			return a
		}
	}
	return nil
}

// MainAddressCount counts addresses flagged as main
func (p *Person) MainAddressCount() int {
	n := 0
	for _, a := range p.Addresses {
		if a.IsMain {
			n++
		}
	}
	return n
}

func (p *Person) findAddress(id uuid.UUID) *Address {
	if id == uuid.Nil {
		return nil
	}
	for _, a := range p.Addresses {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// PersonPatch carries the optional fields of an update request
type PersonPatch struct {
	Name      shared.Optional[string]
	BirthDate shared.Optional[time.Time]
}

// DateOnly truncates t to a UTC calendar date
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

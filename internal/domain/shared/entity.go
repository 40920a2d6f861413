package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by everything that has an identity in the store
type Entity interface {
	GetID() uuid.UUID
	IsPersisted() bool
}

// BaseEntity holds identity and audit timestamps.
// A zero ID means the entity has not been stored yet; the repository
// assigns one on first save.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// IsPersisted reports whether the entity has been assigned an ID
func (e *BaseEntity) IsPersisted() bool {
	return e.ID != uuid.Nil
}

// AssignID gives the entity a fresh ID if it has none and stamps timestamps.
func (e *BaseEntity) AssignID(now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// BaseAggregateRoot adds an optimistic version counter to BaseEntity
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion bumps the version; repositories call it on every save
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

package registry

import (
	"context"

	"github.com/attornatus/backend/internal/domain/registry"
)

// TransactionScope runs a unit of work atomically. Repositories handed to fn
// share one database transaction; returning an error rolls all of it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to repositories bound to a transaction
type TransactionalRepositories interface {
	PersonRepo() registry.PersonRepository
	AddressRepo() registry.AddressRepository
}

// EventRecorder receives business events, typically to feed metrics
type EventRecorder interface {
	PersonRegistered(ctx context.Context)
	AddressAdded(ctx context.Context)
	MainAddressChanged(ctx context.Context)
}

type noopRecorder struct{}

func (noopRecorder) PersonRegistered(context.Context)   {}
func (noopRecorder) AddressAdded(context.Context)       {}
func (noopRecorder) MainAddressChanged(context.Context) {}

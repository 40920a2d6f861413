package testutil

import (
	"context"
	"sync/atomic"
)

// EventRecorder counts registry business events for assertions
type EventRecorder struct {
	registered  atomic.Int64
	added       atomic.Int64
	mainChanged atomic.Int64
}

// PersonRegistered implements the registry EventRecorder
func (r *EventRecorder) PersonRegistered(context.Context) { r.registered.Add(1) }

// AddressAdded implements the registry EventRecorder
func (r *EventRecorder) AddressAdded(context.Context) { r.added.Add(1) }

// MainAddressChanged implements the registry EventRecorder
func (r *EventRecorder) MainAddressChanged(context.Context) { r.mainChanged.Add(1) }

// Registered returns the number of registrations seen
func (r *EventRecorder) Registered() int64 { return r.registered.Load() }

// Added returns the number of addresses added after registration
func (r *EventRecorder) Added() int64 { return r.added.Load() }

// MainChanged returns the number of main address changes
func (r *EventRecorder) MainChanged() int64 { return r.mainChanged.Load() }

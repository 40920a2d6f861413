package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics set is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// RegistryMetrics counts registry business events. It satisfies the
// application's EventRecorder.
type RegistryMetrics struct {
	personsRegistered  *Counter
	addressesAdded     *Counter
	mainAddressChanges *Counter
}

// NewRegistryMetrics creates the registry counters on meter
func NewRegistryMetrics(meter metric.Meter) (*RegistryMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   RegistryMetrics
		err error
	)
	if m.personsRegistered, err = NewCounter(meter,
		"registry_persons_registered_total", "Total number of persons registered", "{persons}"); err != nil {
		return nil, err
	}
	if m.addressesAdded, err = NewCounter(meter,
		"registry_addresses_added_total", "Total number of addresses added to registered persons", "{addresses}"); err != nil {
		return nil, err
	}
	if m.mainAddressChanges, err = NewCounter(meter,
		"registry_main_address_changes_total", "Total number of main address changes", "{changes}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// PersonRegistered increments the registration counter
func (m *RegistryMetrics) PersonRegistered(ctx context.Context) {
	m.personsRegistered.Inc(ctx)
}

// AddressAdded increments the added-address counter
func (m *RegistryMetrics) AddressAdded(ctx context.Context) {
	m.addressesAdded.Inc(ctx)
}

// MainAddressChanged increments the main-address counter
func (m *RegistryMetrics) MainAddressChanged(ctx context.Context) {
	m.mainAddressChanges.Inc(ctx)
}

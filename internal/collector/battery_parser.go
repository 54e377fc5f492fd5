package collector

import (
	"time"

	"github.com/rileyhilliard/mactop/internal/errors"
	"github.com/rileyhilliard/mactop/internal/metrics"
)

const batteryDocument = "AppleSmartBattery"

// ParseBattery derives a new snapshot from the AppleSmartBattery registry
// entry. The capacity history continues prev's and is capped at capacity.
// Adapter details are read only while external power is connected.
func ParseBattery(doc Dict, prev metrics.BatterySnapshot, capacity int, at time.Time) (metrics.BatterySnapshot, error) {
	b := &metrics.SmartBattery{}

	ints := []struct {
		key string
		dst *int
	}{
		{"AppleRawCurrentCapacity", &b.RawCurrentCapacity},
		{"AppleRawMaxCapacity", &b.RawMaxCapacity},
		{"DesignCapacity", &b.DesignCapacity},
		{"Temperature", &b.Temperature},
		{"CycleCount", &b.CycleCount},
	}
	for _, f := range ints {
		v, ok := doc.Int(f.key)
		if !ok {
			return metrics.BatterySnapshot{}, errors.MissingField(batteryDocument, f.key)
		}
		*f.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"ExternalChargeCapable", &b.ExternalChargeCapable},
		{"ExternalConnected", &b.ExternalConnected},
		{"IsCharging", &b.IsCharging},
	}
	for _, f := range bools {
		v, ok := doc.Bool(f.key)
		if !ok {
			return metrics.BatterySnapshot{}, errors.MissingField(batteryDocument, f.key)
		}
		*f.dst = v
	}

	b.CapacityHistory = metrics.Append(prev.CapacityHistory(),
		metrics.CapacitySample{At: at, Capacity: b.RawCurrentCapacity}, capacity)

	if b.ExternalConnected {
		// Some chargers are reported without details; an empty block still
		// records that an adapter is present.
		details, _ := doc.Dict("AdapterDetails")
		b.Adapter = parseAdapter(details)
	}

	return metrics.BatterySnapshot{CollectedAt: at, SmartBattery: b}, nil
}

func parseAdapter(d Dict) *metrics.AdapterDetails {
	a := &metrics.AdapterDetails{
		Voltage: d.IntOr("AdapterVoltage", 0),
		Current: d.IntOr("Current", 0),
		Watts:   d.IntOr("Watts", 0),
	}
	a.Description, _ = d.String("Description")
	a.Manufacturer, _ = d.String("Manufacturer")
	a.Name, _ = d.String("Name")
	return a
}

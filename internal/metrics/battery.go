package metrics

import "time"

// BatterySnapshot is the latest AppleSmartBattery reading. SmartBattery is
// nil until the first successful poll.
type BatterySnapshot struct {
	CollectedAt  time.Time     `yaml:"collected_at"`
	SmartBattery *SmartBattery `yaml:"smart_battery,omitempty"`
}

// Source implements Snapshot.
func (BatterySnapshot) Source() Source { return SourceBattery }

// CapacityHistory returns the capacity samples, or nil before the first poll.
func (b BatterySnapshot) CapacityHistory() []CapacitySample {
	if b.SmartBattery == nil {
		return nil
	}
	return b.SmartBattery.CapacityHistory
}

// SmartBattery mirrors the AppleSmartBattery registry entry.
type SmartBattery struct {
	RawCurrentCapacity    int  `yaml:"raw_current_capacity"`
	RawMaxCapacity        int  `yaml:"raw_max_capacity"`
	DesignCapacity        int  `yaml:"design_capacity"`
	Temperature           int  `yaml:"temperature"` // hundredths of a degree Celsius
	CycleCount            int  `yaml:"cycle_count"`
	ExternalChargeCapable bool `yaml:"external_charge_capable"`
	ExternalConnected     bool `yaml:"external_connected"`
	IsCharging            bool `yaml:"is_charging"`

	CapacityHistory []CapacitySample `yaml:"capacity_history,omitempty"`
	// Adapter is set only while ExternalConnected is true.
	Adapter *AdapterDetails `yaml:"adapter,omitempty"`
}

// Celsius converts the raw temperature reading.
func (b *SmartBattery) Celsius() float64 {
	return float64(b.Temperature) / 100
}

// Percent is the current charge relative to the raw maximum capacity.
func (b *SmartBattery) Percent() float64 {
	if b.RawMaxCapacity <= 0 {
		return 0
	}
	return float64(b.RawCurrentCapacity) / float64(b.RawMaxCapacity) * 100
}

// Health is the raw maximum capacity relative to the design capacity.
func (b *SmartBattery) Health() float64 {
	if b.DesignCapacity <= 0 {
		return 0
	}
	return float64(b.RawMaxCapacity) / float64(b.DesignCapacity) * 100
}

// CapacitySample is a raw capacity reading at a point in time.
type CapacitySample struct {
	At       time.Time `yaml:"at"`
	Capacity int       `yaml:"capacity"`
}

// AdapterDetails describes the connected power adapter.
type AdapterDetails struct {
	Voltage      int    `yaml:"voltage"` // mV
	Current      int    `yaml:"current"` // mA
	Watts        int    `yaml:"watts"`
	Description  string `yaml:"description,omitempty"`
	Manufacturer string `yaml:"manufacturer,omitempty"`
	Name         string `yaml:"name,omitempty"`
}

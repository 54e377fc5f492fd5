// Package metrics holds the telemetry data model and the concurrent store
// that collectors publish into.
//
// # Snapshots
//
// Each source publishes a complete snapshot per cycle:
//
//   - PowerSnapshot from powermetrics (power, frequency, thermal, rates, tasks)
//   - BatterySnapshot from ioreg (AppleSmartBattery and adapter state)
//   - SystemSnapshot from OS counters (CPU time split, memory, load, boot time)
//
// Snapshots are values. Parsers build a new one every cycle and never modify
// one that has been published; consumers must not modify what they read.
//
// # History
//
// Rates and energy readings are Gauges: a value plus a bounded history built
// with Append. Append copies, so a new snapshot never shares history storage
// with the previous one.
//
// # Store
//
// Store keeps the latest snapshot per source behind one RWMutex per source.
// A slow reader of one source never delays a writer of another, and each
// source has exactly one writer, its collector.
package metrics

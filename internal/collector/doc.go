// Package collector runs the background loops that read telemetry sources
// and publish snapshots to a metrics.Store.
//
// # Collectors
//
//	PowerCollector    - streams `powermetrics --format plist` (or replays a capture file)
//	BatteryCollector  - polls `ioreg -c AppleSmartBattery` on a fixed interval
//	SystemCollector   - reads OS counters through gopsutil, self-paced
//
// Each collector owns one goroutine and writes only its own store slot. Stop
// is cooperative: the loop checks for cancellation between cycles and inside
// every sleep, so a cycle that has started always finishes.
//
// # Parsing
//
// Parsers are pure: ParsePower, ParseBattery and ParseSystem take the raw
// reading and the previous snapshot and return a new snapshot. History is
// carried forward through metrics.Append and never shared with the previous
// snapshot.
//
// powermetrics output has no length prefix. RecordReader splits the stream
// on the closing </plist> marker, drops the NUL terminator that follows it,
// and hands each record to DecodeDict. A record that fails to decode is
// saved by the Dumper and skipped.
package collector

package metrics

import "time"

// SystemSnapshot holds OS counters read in-process.
type SystemSnapshot struct {
	CollectedAt time.Time `yaml:"collected_at"`
	// CPU is the aggregate breakdown as fractions that sum to 1.
	CPU CPUTimesPercent `yaml:"cpu"`
	// PerCPU holds one breakdown per logical CPU, in percent.
	PerCPU       []CPUTimesPercent `yaml:"per_cpu,omitempty"`
	Swap         SwapMemory        `yaml:"swap"`
	Memory       VirtualMemory     `yaml:"memory"`
	Load         LoadAverage       `yaml:"load"`
	BootTime     time.Time         `yaml:"boot_time"`
	LogicalCPUs  int               `yaml:"logical_cpus"`
	PhysicalCPUs int               `yaml:"physical_cpus"`
}

// Source implements Snapshot.
func (SystemSnapshot) Source() Source { return SourceSystem }

// Uptime is the time since boot relative to now, or zero if boot time is unknown.
func (s SystemSnapshot) Uptime(now time.Time) time.Duration {
	if s.BootTime.IsZero() {
		return 0
	}
	return now.Sub(s.BootTime)
}

// CPUTimesPercent splits CPU time by state.
type CPUTimesPercent struct {
	User   float64 `yaml:"user"`
	Nice   float64 `yaml:"nice"`
	System float64 `yaml:"system"`
	Idle   float64 `yaml:"idle"`
}

// Busy is everything but idle.
func (c CPUTimesPercent) Busy() float64 {
	return c.User + c.Nice + c.System
}

// SwapMemory usage in bytes.
type SwapMemory struct {
	Total      uint64  `yaml:"total"`
	Used       uint64  `yaml:"used"`
	Free       uint64  `yaml:"free"`
	Percent    float64 `yaml:"percent"`
	SwappedIn  uint64  `yaml:"sin"`
	SwappedOut uint64  `yaml:"sout"`
}

// VirtualMemory usage in bytes.
type VirtualMemory struct {
	Total     uint64  `yaml:"total"`
	Available uint64  `yaml:"available"`
	Percent   float64 `yaml:"percent"`
	Used      uint64  `yaml:"used"`
	Free      uint64  `yaml:"free"`
	Active    uint64  `yaml:"active"`
	Inactive  uint64  `yaml:"inactive"`
	Wired     uint64  `yaml:"wired"`
}

// LoadAverage over 1, 5 and 15 minutes.
type LoadAverage struct {
	Load1  float64 `yaml:"load1"`
	Load5  float64 `yaml:"load5"`
	Load15 float64 `yaml:"load15"`
}

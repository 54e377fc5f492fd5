package metrics

import "time"

// PowerSnapshot is one powermetrics sample. Sections absent from the sample
// are nil.
type PowerSnapshot struct {
	CollectedAt time.Time     `yaml:"collected_at"`
	Backlight   *int          `yaml:"backlight,omitempty"`
	SMC         *SMC          `yaml:"smc,omitempty"`
	Tasks       []Task        `yaml:"tasks,omitempty"`
	Network     *Network      `yaml:"network,omitempty"`
	Disk        *Disk         `yaml:"disk,omitempty"`
	GPU         *GPU          `yaml:"gpu,omitempty"`
	Processor   Processor     `yaml:"processor,omitempty"`
	Battery     *PowerBattery `yaml:"battery,omitempty"`
}

// Source implements Snapshot.
func (PowerSnapshot) Source() Source { return SourcePower }

// SMC holds thermal and fan sensor readings.
type SMC struct {
	CPUDie float64 `yaml:"cpu_die"`
	GPUDie float64 `yaml:"gpu_die"`
	Fan    float64 `yaml:"fan"`
}

// Task is one row of the process table. Fields keeps the raw record.
type Task struct {
	PID              int                    `yaml:"pid"`
	Name             string                 `yaml:"name"`
	CPUTimeMsPerS    float64                `yaml:"cputime_ms_per_s"`
	EnergyImpactPerS float64                `yaml:"energy_impact_per_s"`
	Fields           map[string]interface{} `yaml:"fields,omitempty"`
}

// Network rates, per second.
type Network struct {
	InBytes    Gauge `yaml:"ibyte_rate"`
	OutBytes   Gauge `yaml:"obyte_rate"`
	InPackets  Gauge `yaml:"ipacket_rate"`
	OutPackets Gauge `yaml:"opacket_rate"`
}

// Disk rates, per second.
type Disk struct {
	ReadBytes  Gauge `yaml:"rbytes_per_s"`
	WriteBytes Gauge `yaml:"wbytes_per_s"`
	ReadOps    Gauge `yaml:"rops_per_s"`
	WriteOps   Gauge `yaml:"wops_per_s"`
}

// GPU is only reported on Apple silicon.
type GPU struct {
	FreqHz    float64 `yaml:"freq_hz"`
	IdleRatio float64 `yaml:"idle_ratio"`
	Energy    Gauge   `yaml:"gpu_energy"`
}

// PowerBattery is the battery section of a powermetrics sample.
type PowerBattery struct {
	PluggedIn     bool    `yaml:"plugged_in"`
	DischargeRate float64 `yaml:"discharge_rate"`
}

// ProcessorKind identifies which processor tree a sample carried.
type ProcessorKind int

const (
	ProcessorUnknown ProcessorKind = iota
	ProcessorIntel
	ProcessorApple
)

func (k ProcessorKind) String() string {
	switch k {
	case ProcessorIntel:
		return "intel"
	case ProcessorApple:
		return "apple"
	default:
		return "unknown"
	}
}

// Processor is either *IntelProcessor or *AppleProcessor. The interface is
// sealed so a snapshot can never carry both trees.
type Processor interface {
	Kind() ProcessorKind
	processor()
}

// CPU is a logical CPU.
type CPU struct {
	Number    int     `yaml:"cpu"`
	FreqHz    float64 `yaml:"freq_hz"`
	FreqRatio float64 `yaml:"freq_ratio"`
}

// Core is a physical Intel core.
type Core struct {
	Index       int     `yaml:"core"`
	CStateRatio float64 `yaml:"c_state_ratio"`
	CPUs        []CPU   `yaml:"cpus"`
}

// MeanFreqHz averages the core's logical CPU frequencies.
func (c Core) MeanFreqHz() float64 {
	return meanFreq(c.CPUs)
}

// Package is an Intel CPU package.
type Package struct {
	CStateRatio float64 `yaml:"c_state_ratio"`
	Cores       []Core  `yaml:"cores"`
}

// IntelProcessor is the package/core/cpu tree reported on Intel Macs.
type IntelProcessor struct {
	PackageWatts Gauge     `yaml:"package_watts"`
	Packages     []Package `yaml:"packages"`

	cores []Core
}

// NewIntelProcessor builds the processor tree and its flat core index.
func NewIntelProcessor(watts Gauge, packages []Package) *IntelProcessor {
	p := &IntelProcessor{PackageWatts: watts, Packages: packages}
	for _, pkg := range packages {
		p.cores = append(p.cores, pkg.Cores...)
	}
	return p
}

func (*IntelProcessor) Kind() ProcessorKind { return ProcessorIntel }
func (*IntelProcessor) processor()          {}

// Cores returns every core across all packages, in package order.
func (p *IntelProcessor) Cores() []Core {
	return p.cores
}

// CoreAt returns the core at flat index i across all packages.
func (p *IntelProcessor) CoreAt(i int) (Core, bool) {
	if i < 0 || i >= len(p.cores) {
		return Core{}, false
	}
	return p.cores[i], true
}

// Cluster is an Apple silicon CPU cluster (E or P).
type Cluster struct {
	Name      string  `yaml:"name"`
	IdleRatio float64 `yaml:"idle_ratio"`
	CPUs      []CPU   `yaml:"cpus"`
}

// MeanFreqHz averages the cluster's logical CPU frequencies.
func (c Cluster) MeanFreqHz() float64 {
	return meanFreq(c.CPUs)
}

// AppleProcessor is the cluster tree reported on Apple silicon.
type AppleProcessor struct {
	CPUEnergy Gauge     `yaml:"cpu_energy"`
	GPUEnergy float64   `yaml:"gpu_energy"`
	Clusters  []Cluster `yaml:"clusters"`
}

func (*AppleProcessor) Kind() ProcessorKind { return ProcessorApple }
func (*AppleProcessor) processor()          {}

// KindOf returns the processor kind, or ProcessorUnknown for nil.
func KindOf(p Processor) ProcessorKind {
	if p == nil {
		return ProcessorUnknown
	}
	return p.Kind()
}

func meanFreq(cpus []CPU) float64 {
	if len(cpus) == 0 {
		return 0
	}
	var sum float64
	for _, c := range cpus {
		sum += c.FreqHz
	}
	return sum / float64(len(cpus))
}

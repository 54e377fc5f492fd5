package collector

import (
	"time"

	"github.com/rileyhilliard/mactop/internal/metrics"
)

// ParsePower derives a new snapshot from one decoded powermetrics record.
// History-bearing fields continue prev's history; prev is never modified.
// Sections missing from doc are left nil.
func ParsePower(doc Dict, prev metrics.PowerSnapshot, capacity int, at time.Time) metrics.PowerSnapshot {
	snap := metrics.PowerSnapshot{CollectedAt: at}

	if backlight, ok := doc.Dict("backlight"); ok {
		if v, ok := backlight.Int("value"); ok {
			snap.Backlight = &v
		}
	}
	if smc, ok := doc.Dict("smc"); ok {
		snap.SMC = &metrics.SMC{
			CPUDie: smc.FloatOr("cpu_die", 0),
			GPUDie: smc.FloatOr("gpu_die", 0),
			Fan:    smc.FloatOr("fan", 0),
		}
	}
	if tasks, ok := doc.Dicts("tasks"); ok {
		snap.Tasks = parseTasks(tasks)
	}
	if network, ok := doc.Dict("network"); ok {
		snap.Network = parseNetwork(network, prev.Network, capacity)
	}
	if disk, ok := doc.Dict("disk"); ok {
		snap.Disk = parseDisk(disk, prev.Disk, capacity)
	}
	if gpu, ok := doc.Dict("gpu"); ok {
		snap.GPU = parseGPU(gpu, prev.GPU, capacity)
	}
	if processor, ok := doc.Dict("processor"); ok {
		snap.Processor = parseProcessor(processor, prev.Processor, capacity)
	}
	if battery, ok := doc.Dict("battery"); ok {
		plugged, _ := battery.Bool("plugged_in")
		snap.Battery = &metrics.PowerBattery{
			PluggedIn:     plugged,
			DischargeRate: battery.FloatOr("discharge_rate", 0),
		}
	}

	return snap
}

func parseTasks(tasks []Dict) []metrics.Task {
	out := make([]metrics.Task, 0, len(tasks))
	for _, t := range tasks {
		name, _ := t.String("name")
		out = append(out, metrics.Task{
			PID:              t.IntOr("pid", 0),
			Name:             name,
			CPUTimeMsPerS:    t.FloatOr("cputime_ms_per_s", 0),
			EnergyImpactPerS: t.FloatOr("energy_impact_per_s", 0),
			Fields:           map[string]interface{}(t),
		})
	}
	return out
}

func parseNetwork(d Dict, prev *metrics.Network, capacity int) *metrics.Network {
	var p metrics.Network
	if prev != nil {
		p = *prev
	}
	return &metrics.Network{
		InBytes:    p.InBytes.Next(d.FloatOr("ibyte_rate", 0), capacity),
		OutBytes:   p.OutBytes.Next(d.FloatOr("obyte_rate", 0), capacity),
		InPackets:  p.InPackets.Next(d.FloatOr("ipacket_rate", 0), capacity),
		OutPackets: p.OutPackets.Next(d.FloatOr("opacket_rate", 0), capacity),
	}
}

func parseDisk(d Dict, prev *metrics.Disk, capacity int) *metrics.Disk {
	var p metrics.Disk
	if prev != nil {
		p = *prev
	}
	return &metrics.Disk{
		ReadBytes:  p.ReadBytes.Next(d.FloatOr("rbytes_per_s", 0), capacity),
		WriteBytes: p.WriteBytes.Next(d.FloatOr("wbytes_per_s", 0), capacity),
		ReadOps:    p.ReadOps.Next(d.FloatOr("rops_per_s", 0), capacity),
		WriteOps:   p.WriteOps.Next(d.FloatOr("wops_per_s", 0), capacity),
	}
}

func parseGPU(d Dict, prev *metrics.GPU, capacity int) *metrics.GPU {
	var energy metrics.Gauge
	if prev != nil {
		energy = prev.Energy
	}
	return &metrics.GPU{
		FreqHz:    d.FloatOr("freq_hz", 0),
		IdleRatio: d.FloatOr("idle_ratio", 0),
		Energy:    energy.Next(d.FloatOr("gpu_energy", 0), capacity),
	}
}

// parseProcessor picks the Apple tree when clusters are present, the Intel
// tree when package_watts is, and nothing otherwise. History only carries
// over when the previous sample had the same kind.
func parseProcessor(d Dict, prev metrics.Processor, capacity int) metrics.Processor {
	switch {
	case d.Has("clusters"):
		var energy metrics.Gauge
		if p, ok := prev.(*metrics.AppleProcessor); ok && p != nil {
			energy = p.CPUEnergy
		}
		clusters, _ := d.Dicts("clusters")
		out := &metrics.AppleProcessor{
			CPUEnergy: energy.Next(d.FloatOr("cpu_energy", 0), capacity),
			GPUEnergy: d.FloatOr("gpu_energy", 0),
			Clusters:  make([]metrics.Cluster, 0, len(clusters)),
		}
		for _, c := range clusters {
			name, _ := c.String("name")
			cpus, _ := c.Dicts("cpus")
			out.Clusters = append(out.Clusters, metrics.Cluster{
				Name:      name,
				IdleRatio: c.FloatOr("idle_ratio", 0),
				CPUs:      parseCPUs(cpus),
			})
		}
		return out

	case d.Has("package_watts"):
		var watts metrics.Gauge
		if p, ok := prev.(*metrics.IntelProcessor); ok && p != nil {
			watts = p.PackageWatts
		}
		packages, _ := d.Dicts("packages")
		parsed := make([]metrics.Package, 0, len(packages))
		for _, pkg := range packages {
			cores, _ := pkg.Dicts("cores")
			parsed = append(parsed, metrics.Package{
				CStateRatio: pkg.FloatOr("c_state_ratio", 0),
				Cores:       parseCores(cores),
			})
		}
		return metrics.NewIntelProcessor(watts.Next(d.FloatOr("package_watts", 0), capacity), parsed)

	default:
		return nil
	}
}

func parseCores(cores []Dict) []metrics.Core {
	out := make([]metrics.Core, 0, len(cores))
	for _, c := range cores {
		cpus, _ := c.Dicts("cpus")
		out = append(out, metrics.Core{
			Index:       c.IntOr("core", 0),
			CStateRatio: c.FloatOr("c_state_ratio", 0),
			CPUs:        parseCPUs(cpus),
		})
	}
	return out
}

func parseCPUs(cpus []Dict) []metrics.CPU {
	out := make([]metrics.CPU, 0, len(cpus))
	for _, c := range cpus {
		out = append(out, metrics.CPU{
			Number:    c.IntOr("cpu", 0),
			FreqHz:    c.FloatOr("freq_hz", 0),
			FreqRatio: c.FloatOr("freq_ratio", 0),
		})
	}
	return out
}

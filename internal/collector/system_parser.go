package collector

import (
	"time"

	"github.com/rileyhilliard/mactop/internal/metrics"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemReading is one round of OS counter reads.
type SystemReading struct {
	Times        []cpu.TimesStat
	Swap         *mem.SwapMemoryStat
	Memory       *mem.VirtualMemoryStat
	Load         *load.AvgStat
	BootTime     uint64 // unix seconds
	LogicalCPUs  int
	PhysicalCPUs int
}

// ParseSystem derives a snapshot from a reading. CPU percentages come from
// the change in cumulative times since prevTimes; with no usable previous
// reading PerCPU is empty and CPU is zero.
func ParseSystem(prevTimes []cpu.TimesStat, r SystemReading, at time.Time) metrics.SystemSnapshot {
	snap := metrics.SystemSnapshot{
		CollectedAt:  at,
		LogicalCPUs:  r.LogicalCPUs,
		PhysicalCPUs: r.PhysicalCPUs,
	}

	if len(prevTimes) > 0 && len(prevTimes) == len(r.Times) {
		snap.PerCPU = make([]metrics.CPUTimesPercent, len(r.Times))
		for i := range r.Times {
			snap.PerCPU[i] = timesPercent(prevTimes[i], r.Times[i])
		}
		snap.CPU = aggregate(snap.PerCPU)
	}

	if s := r.Swap; s != nil {
		snap.Swap = metrics.SwapMemory{
			Total:      s.Total,
			Used:       s.Used,
			Free:       s.Free,
			Percent:    s.UsedPercent,
			SwappedIn:  s.Sin,
			SwappedOut: s.Sout,
		}
	}
	if vm := r.Memory; vm != nil {
		snap.Memory = metrics.VirtualMemory{
			Total:     vm.Total,
			Available: vm.Available,
			Percent:   vm.UsedPercent,
			Used:      vm.Used,
			Free:      vm.Free,
			Active:    vm.Active,
			Inactive:  vm.Inactive,
			Wired:     vm.Wired,
		}
	}
	if l := r.Load; l != nil {
		snap.Load = metrics.LoadAverage{Load1: l.Load1, Load5: l.Load5, Load15: l.Load15}
	}
	if r.BootTime > 0 {
		snap.BootTime = time.Unix(int64(r.BootTime), 0)
	}

	return snap
}

// timesPercent is each state's share of the elapsed CPU time, in percent.
func timesPercent(prev, cur cpu.TimesStat) metrics.CPUTimesPercent {
	total := delta(totalTime(prev), totalTime(cur))
	if total == 0 {
		return metrics.CPUTimesPercent{}
	}
	pct := func(a, b float64) float64 { return delta(a, b) / total * 100 }
	return metrics.CPUTimesPercent{
		User:   pct(prev.User, cur.User),
		Nice:   pct(prev.Nice, cur.Nice),
		System: pct(prev.System, cur.System),
		Idle:   pct(prev.Idle, cur.Idle),
	}
}

// aggregate sums each state across CPUs and normalizes by the summed total,
// giving fractions that add up to 1.
func aggregate(per []metrics.CPUTimesPercent) metrics.CPUTimesPercent {
	var sum metrics.CPUTimesPercent
	for _, p := range per {
		sum.User += p.User
		sum.Nice += p.Nice
		sum.System += p.System
		sum.Idle += p.Idle
	}
	total := sum.User + sum.Nice + sum.System + sum.Idle
	if total == 0 {
		return metrics.CPUTimesPercent{}
	}
	return metrics.CPUTimesPercent{
		User:   sum.User / total,
		Nice:   sum.Nice / total,
		System: sum.System / total,
		Idle:   sum.Idle / total,
	}
}

// totalTime excludes guest time, which Linux already counts in user.
func totalTime(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

// delta clamps counter resets to zero.
func delta(prev, cur float64) float64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

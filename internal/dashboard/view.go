package dashboard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/mactop/internal/metrics"
)

const (
	defaultWidth = BreakpointCompact
	barWidth     = 20
	sparkWidth   = 30
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	if width >= BreakpointWide {
		colWidth := (width - 1) / 2
		left := []string{
			m.renderCPU(colWidth),
			m.renderMemory(colWidth),
			m.renderLoad(colWidth),
			m.renderTasks(colWidth),
		}
		right := []string{
			m.renderEnergy(colWidth),
			m.renderGPU(colWidth),
			m.renderSensors(colWidth),
			m.renderIO(colWidth),
			m.renderBattery(colWidth),
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.JoinVertical(lipgloss.Left, left...),
			" ",
			lipgloss.JoinVertical(lipgloss.Left, right...),
		))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left,
			m.renderCPU(width),
			m.renderMemory(width),
			m.renderLoad(width),
			m.renderEnergy(width),
			m.renderGPU(width),
			m.renderSensors(width),
			m.renderIO(width),
			m.renderBattery(width),
			m.renderTasks(width),
		))
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the processor kind and how fresh each source is.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("mactop")

	var ages []string
	for _, src := range metrics.Sources {
		ages = append(ages, fmt.Sprintf("%s %s", src, formatAge(m.updated[src], m.drawnAt)))
	}
	stats := LabelStyle.Render(fmt.Sprintf(" | %s | %s",
		metrics.KindOf(m.power.Processor), strings.Join(ages, " | ")))

	return HeaderStyle.Render(title + stats)
}

func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.View(m.keys))
}

func (m Model) renderCPU(width int) string {
	sys := m.system
	busy := sys.CPU.Busy() * 100

	lines := []string{
		fmt.Sprintf("%s %s",
			Bar(barWidth, busy),
			LabelStyle.Render(fmt.Sprintf("user %.0f%%  sys %.0f%%  idle %.0f%%",
				sys.CPU.User*100, sys.CPU.System*100, sys.CPU.Idle*100))),
	}

	var cores []string
	for i, c := range sys.PerCPU {
		cores = append(cores, fmt.Sprintf("%s %s %3.0f%%",
			MutedStyle.Render(fmt.Sprintf("%2d", i)), Bar(10, c.Busy()), c.Busy()))
	}
	for i := 0; i < len(cores); i += 2 {
		if i+1 < len(cores) {
			lines = append(lines, cores[i]+"   "+cores[i+1])
		} else {
			lines = append(lines, cores[i])
		}
	}

	switch p := m.power.Processor.(type) {
	case *metrics.AppleProcessor:
		for _, c := range p.Clusters {
			lines = append(lines, fmt.Sprintf("%-10s %8s  active %3.0f%%",
				c.Name, formatFreq(c.MeanFreqHz()), (1-c.IdleRatio)*100))
		}
	case *metrics.IntelProcessor:
		for i, pkg := range p.Packages {
			lines = append(lines, fmt.Sprintf("package %d  %d cores  c-state %3.0f%%",
				i, len(pkg.Cores), pkg.CStateRatio*100))
		}
		for _, c := range p.Cores() {
			lines = append(lines, fmt.Sprintf("core %-3d %8s  c-state %3.0f%%",
				c.Index, formatFreq(c.MeanFreqHz()), c.CStateRatio*100))
		}
	}

	return Section("CPU", fmt.Sprintf("%.0f%%", busy), width, lines)
}

func (m Model) renderMemory(width int) string {
	mem := m.system.Memory
	swap := m.system.Swap

	lines := []string{
		fmt.Sprintf("%s %s", Bar(barWidth, mem.Percent),
			LabelStyle.Render(fmt.Sprintf("%s of %s", formatBytes(mem.Used), formatBytes(mem.Total)))),
		MutedStyle.Render(fmt.Sprintf("wired %s  active %s  inactive %s",
			formatBytes(mem.Wired), formatBytes(mem.Active), formatBytes(mem.Inactive))),
		fmt.Sprintf("%s %s", Bar(barWidth, swap.Percent),
			LabelStyle.Render(fmt.Sprintf("swap %s of %s", formatBytes(swap.Used), formatBytes(swap.Total)))),
	}

	return Section("Memory", fmt.Sprintf("%.0f%%", mem.Percent), width, lines)
}

func (m Model) renderLoad(width int) string {
	sys := m.system
	lines := []string{
		fmt.Sprintf("load  %.2f  %.2f  %.2f", sys.Load.Load1, sys.Load.Load5, sys.Load.Load15),
		fmt.Sprintf("cpus  %d logical  %d physical", sys.LogicalCPUs, sys.PhysicalCPUs),
	}

	uptime := "-"
	if !sys.BootTime.IsZero() {
		uptime = formatDuration(sys.Uptime(m.drawnAt))
	}
	return Section("Load", "up "+uptime, width, lines)
}

func (m Model) renderEnergy(width int) string {
	var lines []string
	value := "-"

	switch p := m.power.Processor.(type) {
	case *metrics.AppleProcessor:
		value = fmt.Sprintf("%.0f mW", p.CPUEnergy.Value)
		lines = append(lines, fmt.Sprintf("CPU %s %8.0f mW",
			RenderSparkline(p.CPUEnergy.History, sparkWidth, ColorGraph), p.CPUEnergy.Value))
		if gpu := m.power.GPU; gpu != nil {
			lines = append(lines, fmt.Sprintf("GPU %s %8.0f mW",
				RenderSparkline(gpu.Energy.History, sparkWidth, ColorAccentDim), gpu.Energy.Value))
		}
	case *metrics.IntelProcessor:
		value = fmt.Sprintf("%.1f W", p.PackageWatts.Value)
		lines = append(lines, fmt.Sprintf("PKG %s %8.1f W",
			RenderSparkline(p.PackageWatts.History, sparkWidth, ColorGraph), p.PackageWatts.Value))
	default:
		lines = append(lines, MutedStyle.Render("waiting for powermetrics"))
	}

	return Section("Energy", value, width, lines)
}

func (m Model) renderGPU(width int) string {
	gpu := m.power.GPU
	if gpu == nil {
		return Section("GPU", "-", width, []string{MutedStyle.Render("not reported")})
	}

	active := (1 - gpu.IdleRatio) * 100
	lines := []string{
		fmt.Sprintf("%s %s", Bar(barWidth, active), LabelStyle.Render(formatFreq(gpu.FreqHz))),
	}
	return Section("GPU", fmt.Sprintf("%.0f%%", active), width, lines)
}

func (m Model) renderSensors(width int) string {
	var lines []string

	if smc := m.power.SMC; smc != nil {
		lines = append(lines,
			fmt.Sprintf("CPU die %s  GPU die %s",
				lipgloss.NewStyle().Foreground(TempColor(smc.CPUDie)).Render(fmt.Sprintf("%.1f°C", smc.CPUDie)),
				lipgloss.NewStyle().Foreground(TempColor(smc.GPUDie)).Render(fmt.Sprintf("%.1f°C", smc.GPUDie))),
			fmt.Sprintf("fan %.0f rpm", smc.Fan),
		)
	}
	if bl := m.power.Backlight; bl != nil {
		lines = append(lines, fmt.Sprintf("backlight %d", *bl))
	}
	if len(lines) == 0 {
		lines = append(lines, MutedStyle.Render("not reported"))
	}

	return Section("Sensors", "", width, lines)
}

func (m Model) renderIO(width int) string {
	var lines []string

	if n := m.power.Network; n != nil {
		lines = append(lines,
			fmt.Sprintf("net in  %s %12s", RenderSparkline(n.InBytes.History, sparkWidth, ColorHealthy), formatRate(n.InBytes.Value)),
			fmt.Sprintf("net out %s %12s", RenderSparkline(n.OutBytes.History, sparkWidth, ColorAccent), formatRate(n.OutBytes.Value)),
		)
	}
	if d := m.power.Disk; d != nil {
		lines = append(lines,
			fmt.Sprintf("disk rd %s %12s", RenderSparkline(d.ReadBytes.History, sparkWidth, ColorHealthy), formatRate(d.ReadBytes.Value)),
			fmt.Sprintf("disk wr %s %12s", RenderSparkline(d.WriteBytes.History, sparkWidth, ColorAccent), formatRate(d.WriteBytes.Value)),
		)
	}
	if len(lines) == 0 {
		lines = append(lines, MutedStyle.Render("waiting for powermetrics"))
	}

	return Section("Network & Disk", "", width, lines)
}

func (m Model) renderBattery(width int) string {
	b := m.battery.SmartBattery
	if b == nil {
		return Section("Battery", "-", width, []string{MutedStyle.Render("no battery")})
	}

	percent := b.Percent()
	lines := []string{
		fmt.Sprintf("%s %s", ColorBar(barWidth, percent, batteryColor(percent)), LabelStyle.Render(batteryState(b))),
		MutedStyle.Render(fmt.Sprintf("health %.0f%%  %d cycles  %.1f°C", b.Health(), b.CycleCount, b.Celsius())),
	}

	if est, ok := metrics.EstimateCharge(b); ok && est.EstimateMinutes > 0 {
		verb := "empty in"
		if est.Charging() {
			verb = "full in"
		}
		lines = append(lines, fmt.Sprintf("%s %s  (%+.0f mAh/min)", verb, formatMinutes(est.EstimateMinutes), est.MinuteRate))
	}

	if pb := m.power.Battery; pb != nil && !pb.PluggedIn && pb.DischargeRate > 0 {
		lines = append(lines, fmt.Sprintf("discharging at %.0f mW", pb.DischargeRate))
	}

	if a := b.Adapter; a != nil {
		name := a.Name
		if name == "" {
			name = a.Description
		}
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("adapter %dW %.1fV %.2fA %s",
			a.Watts, float64(a.Voltage)/1000, float64(a.Current)/1000, name)))
	}

	return Section("Battery", fmt.Sprintf("%.0f%%", percent), width, lines)
}

func batteryState(b *metrics.SmartBattery) string {
	switch {
	case b.IsCharging:
		return "charging"
	case b.ExternalConnected:
		return "on AC"
	default:
		return "on battery"
	}
}

// batteryColor inverts the severity scale: low charge is critical.
func batteryColor(percent float64) lipgloss.Color {
	return MetricColor(100 - percent)
}

func (m Model) renderTasks(width int) string {
	tasks := topTasks(m.power.Tasks, m.topTasks)
	if len(tasks) == 0 {
		return Section("Tasks", "", width, []string{MutedStyle.Render("waiting for powermetrics")})
	}

	lines := []string{
		LabelStyle.Render(fmt.Sprintf("%7s  %-20s %9s %8s", "PID", "NAME", "CPU ms/s", "ENERGY")),
	}
	for _, t := range tasks {
		name := t.Name
		if len(name) > 20 {
			name = name[:20]
		}
		lines = append(lines, fmt.Sprintf("%7d  %-20s %9.1f %8.1f", t.PID, name, t.CPUTimeMsPerS, t.EnergyImpactPerS))
	}

	return Section("Tasks", fmt.Sprintf("top %d", len(tasks)), width, lines)
}

// topTasks returns the n tasks with the highest energy impact without
// reordering the snapshot's slice.
func topTasks(tasks []metrics.Task, n int) []metrics.Task {
	sorted := append([]metrics.Task(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EnergyImpactPerS > sorted[j].EnergyImpactPerS
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// renderHelpOverlay renders a centered help box with keyboard shortcuts.
func (m Model) renderHelpOverlay() string {
	content := helpTitleStyle.Render("Keyboard Shortcuts") + "\n" +
		m.help.View(m.keys) + "\n\n" +
		LabelStyle.Render("Press ? to close")

	box := helpBoxStyle.Render(content)
	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

package dashboard

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// formatRate formats a bytes-per-second rate, e.g. "1.5 kB/s".
func formatRate(bytesPerSecond float64) string {
	if bytesPerSecond < 0 || math.IsNaN(bytesPerSecond) {
		bytesPerSecond = 0
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

// formatBytes formats a memory size in binary units, e.g. "16 GiB".
func formatBytes(b uint64) string {
	return humanize.IBytes(b)
}

// formatFreq formats a frequency in hertz, e.g. "3.2 GHz".
func formatFreq(hz float64) string {
	if hz <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(hz, 2, "Hz")
}

// formatDuration renders a coarse duration: "45s", "12m", "3h 4m", "2d 5h".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		days := int(d.Hours()) / 24
		return fmt.Sprintf("%dd %dh", days, int(d.Hours())%24)
	}
}

// formatMinutes renders a fractional minute count as a duration.
func formatMinutes(minutes float64) string {
	if math.IsInf(minutes, 0) || math.IsNaN(minutes) {
		return "-"
	}
	return formatDuration(time.Duration(minutes * float64(time.Minute)))
}

// formatAge describes how long ago a source last published.
func formatAge(updated, now time.Time) string {
	if updated.IsZero() {
		return "waiting"
	}
	age := now.Sub(updated)
	if age < time.Second {
		return "live"
	}
	return formatDuration(age) + " ago"
}

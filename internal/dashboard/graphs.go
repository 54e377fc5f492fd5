package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// sparklineBlocks are block characters for 8-level vertical resolution (lowest to highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// dataRange returns the scale for a series. The floor is zero unless the
// data goes negative.
func dataRange(data []float64) (minVal, maxVal float64) {
	for i, v := range data {
		if i == 0 || v > maxVal {
			maxVal = v
		}
		if v < minVal {
			minVal = v
		}
	}
	return minVal, maxVal
}

// normalizeValue converts a value to 0-1 range given min/max bounds.
func normalizeValue(val, minVal, maxVal float64) float64 {
	if maxVal <= minVal {
		return 0
	}
	return (val - minVal) / (maxVal - minVal)
}

// clampInt clamps an integer to a range [0, maxVal].
func clampInt(val, maxVal int) int {
	if val < 0 {
		return 0
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// sparkline renders data scaled between minVal and maxVal. Histories longer
// than width are compressed, shorter ones are right-aligned so the newest
// sample is always in the last column.
func sparkline(data []float64, width int, minVal, maxVal float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	points := data
	if len(points) > width {
		points = resampleData(points, width)
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(points)))
	for _, v := range points {
		normalized := normalizeValue(v, minVal, maxVal)
		idx := clampInt(int(normalized*float64(len(sparklineBlocks)-1)+0.5), len(sparklineBlocks)-1)
		b.WriteRune(sparklineBlocks[idx])
	}
	return b.String()
}

// RenderSparkline renders a single-row sparkline scaled to the data's own range.
func RenderSparkline(data []float64, width int, color lipgloss.Color) string {
	minVal, maxVal := dataRange(data)
	line := sparkline(data, width, minVal, maxVal)
	if line == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(color).Render(line)
}

// RenderPercentSparkline renders 0-100 data on a fixed scale, colored by the
// most recent value.
func RenderPercentSparkline(data []float64, width int) string {
	line := sparkline(data, width, 0, 100)
	if line == "" {
		return ""
	}
	return lipgloss.NewStyle().Foreground(MetricColor(data[len(data)-1])).Render(line)
}

// resampleData resamples data to the target size.
// When downsampling (compressing), uses max-based sampling to preserve peaks/spikes.
// When upsampling (expanding), uses linear interpolation.
func resampleData(data []float64, targetSize int) []float64 {
	if len(data) == 0 || targetSize <= 0 {
		return nil
	}

	if len(data) == targetSize {
		return data
	}

	result := make([]float64, targetSize)

	if len(data) == 1 {
		for i := range result {
			result[i] = data[0]
		}
		return result
	}

	// Downsampling: use max within each bucket to preserve peaks
	if len(data) > targetSize {
		bucketSize := float64(len(data)) / float64(targetSize)
		for i := 0; i < targetSize; i++ {
			start := int(float64(i) * bucketSize)
			end := int(float64(i+1) * bucketSize)
			if end > len(data) {
				end = len(data)
			}
			if start >= end {
				start = end - 1
			}
			if start < 0 {
				start = 0
			}

			maxVal := data[start]
			for j := start + 1; j < end; j++ {
				if data[j] > maxVal {
					maxVal = data[j]
				}
			}
			result[i] = maxVal
		}
		return result
	}

	// Upsampling: linear interpolation
	scale := float64(len(data)-1) / float64(targetSize-1)
	for i := 0; i < targetSize; i++ {
		pos := float64(i) * scale
		idx := int(pos)
		frac := pos - float64(idx)

		if idx >= len(data)-1 {
			result[i] = data[len(data)-1]
		} else {
			result[i] = data[idx]*(1-frac) + data[idx+1]*frac
		}
	}

	return result
}

// Package stats renders analytics records as terminal text.
package stats

import (
	"math"
	"strings"
)

const sparkChars = " ▁▂▃▄▅▆▇█"

// Sparkline renders a single-line sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	levels := []rune(sparkChars)
	if maxVal-minVal < 1e-9 {
		return strings.Repeat(string(levels[len(levels)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(levels)-1)))
		b.WriteRune(levels[max(0, min(idx, len(levels)-1))])
	}
	return b.String()
}

// Floats converts integer samples for plotting.
func Floats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

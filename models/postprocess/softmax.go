package postprocess

import (
	"strings"

	"github.com/chewxy/math32"
)

// Softmax converts logits into probabilities. The maximum is subtracted first so large
// logits do not overflow. When the maximum is infinite the mass is shared equally by the
// entries equal to it.
//
// Arguments:
//   - logits: The raw scores.
//
// Returns:
//   - []float32: The probabilities, summing to 1. Nil for empty input.
func Softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[ArgMax(logits)]

	out := make([]float32, len(logits))
	if math32.IsInf(maxVal, 0) {
		var n float32
		for _, v := range logits {
			if v == maxVal {
				n++
			}
		}
		for i, v := range logits {
			if v == maxVal {
				out[i] = 1 / n
			}
		}
		return out
	}

	var sum float32
	for i, v := range logits {
		out[i] = math32.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// ArgMax returns the index of the largest value, or -1 for an empty slice.
func ArgMax(values []float32) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// Bar draws a probability as a run of up to width stars.
func Bar(p float32, width int) string {
	if width <= 0 {
		return ""
	}
	n := int(math32.Round(math32.Max(0, math32.Min(1, p)) * float32(width)))
	return strings.Repeat("*", n)
}

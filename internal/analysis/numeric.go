package analysis

import (
	"log/slog"
	"strconv"
)

// clamp bounds a score to [0.0, 1.0].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// coerceFloat converts whatever number-ish value the LLM returned into a
// float64. Strings are parsed; anything else defaults to 0.0 with a warning.
func coerceFloat(v any, field string) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err == nil {
			return f
		}
	case nil:
	}
	slog.Warn("non-numeric value in LLM reply, defaulting to 0.0", "field", field, "value", v)
	return 0.0
}

// mean returns the arithmetic mean of vs, 0 for empty input.
func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

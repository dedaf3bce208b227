package ranking

// Normalize maps value onto [0, 1] given the range of its dimension.
// A flat dimension (max == min) maps every value to 0.
func Normalize(value, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (value - lo) / (hi - lo)
}

// bounds returns the min and max of values, both 0 for an empty slice.
func bounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

package fraud

// clamp bounds a score to [0,1]. Every score crossing a component boundary in
// this module is clamped so weighted sums can never escape the unit interval.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

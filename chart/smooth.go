package chart

// MovingAverage smooths vals with a centered window. Edges average over
// whatever neighbors exist, so the output has the same length as the
// input. A window below two returns a copy unchanged.
func MovingAverage(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	if window < 2 {
		copy(out, vals)
		return out
	}
	half := window / 2
	for i := range vals {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(vals)-1 {
			hi = len(vals) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

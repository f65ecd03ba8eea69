package distance

import (
	"log/slog"
	"math"
	"sort"

	"github.com/x448/float16"
)

// RangeDiagnostics reports the 99.9th-percentile absolute component value
// across a sample of vectors. It never touches the per-vector Q8 encoding
// path (each Q8Vector still carries its own Range computed at encode time);
// it is a standalone operator-facing statistic, the way the teacher's
// Quantizer.Train calibrates a quantile against outliers. The index does
// not call it, and PrintStats does not report it.
func RangeDiagnostics(samples [][]float32) float32 {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return 0
	}
	all := make([]float32, 0, len(samples)*len(samples[0]))
	for _, vec := range samples {
		for _, v := range vec {
			all = append(all, float32(math.Abs(float64(v))))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	idx := int(float64(len(all)) * 0.999)
	if idx >= len(all) {
		idx = len(all) - 1
	}
	if idx < 0 {
		idx = 0
	}
	p999 := all[idx]
	slog.Info("[Quantizer] Range diagnostics computed", "samples", len(samples), "p999_abs", p999)
	return p999
}

// CompactRange rounds a vector's per-component range calculation through
// float16 before returning it, giving a cheaper (but coarser) range
// estimate suitable for calibration diagnostics over very large samples
// where allocating a full float32 pass is undesirable.
func CompactRange(v []float32) float32 {
	var maxAbs float32
	for _, c := range v {
		a := c
		if a < 0 {
			a = -a
		}
		h := float16.Fromfloat32(a).Float32()
		if h > maxAbs {
			maxAbs = h
		}
	}
	return maxAbs
}

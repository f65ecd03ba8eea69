package distance

// Q8Distance reconstructs squared Euclidean distance from two int8-coded
// vectors, scaling the integer accumulator by each side's range the way
// spec fixes it: sum((a_i-b_i)^2) * (a.Range*b.Range)/(127*127).
func Q8Distance(a, b Q8Vector) (float32, error) {
	if len(a.Codes) != len(b.Codes) {
		return 0, ErrBadInput
	}
	var acc int32
	for i, ca := range a.Codes {
		d := int32(ca) - int32(b.Codes[i])
		acc += d * d
	}
	const scaleDenom = 127.0 * 127.0
	d := float32(acc) * (a.Range * b.Range) / scaleDenom
	if d < 0 {
		d = 0
	}
	return d, nil
}

// EncodeQ8 quantizes a unit-norm float32 vector into signed 8-bit codes,
// computing range as the max absolute component of v (per-vector, not
// trained across a dataset).
func EncodeQ8(v []float32) Q8Vector {
	var maxAbs float32
	for _, c := range v {
		a := c
		if a < 0 {
			a = -a
		}
		if a > maxAbs {
			maxAbs = a
		}
	}
	codes := make([]int8, len(v))
	if maxAbs > 0 {
		scale := float32(127) / maxAbs
		for i, c := range v {
			q := c * scale
			if q > 127 {
				q = 127
			} else if q < -127 {
				q = -127
			}
			codes[i] = int8(roundHalfAwayFromZero(q))
		}
	}
	return Q8Vector{Codes: codes, Range: maxAbs}
}

// DecodeQ8 reconstructs an approximate float32 vector from its Q8 codes. If
// norm is non-zero the result is scaled back to the pre-normalization
// magnitude the caller originally supplied.
func DecodeQ8(v Q8Vector, norm float32) []float32 {
	out := make([]float32, len(v.Codes))
	scale := v.Range / 127
	if norm != 0 {
		scale *= norm
	}
	for i, c := range v.Codes {
		out[i] = float32(c) * scale
	}
	return out
}

func roundHalfAwayFromZero(x float32) float32 {
	if x >= 0 {
		return float32(int32(x + 0.5))
	}
	return float32(int32(x - 0.5))
}

package distance

import (
	"math"
	"math/bits"
)

// EncodeBIN quantizes a unit-norm vector into one sign bit per component,
// packed 64 bits to a word: bit c is set iff v[c] >= 0.
func EncodeBIN(v []float32) BinVector {
	numWords := (len(v) + 63) / 64
	words := make([]uint64, numWords)
	for i, c := range v {
		if c >= 0 {
			words[i/64] |= 1 << uint(i%64)
		}
	}
	return BinVector{Bits: words, D: len(v)}
}

// DecodeBIN reconstructs signs scaled to +-1/sqrt(D), as spec requires: a
// lossy reconstruction that recovers only which side of zero each
// component fell on.
func DecodeBIN(v BinVector, norm float32) []float32 {
	out := make([]float32, v.D)
	if v.D == 0 {
		return out
	}
	mag := float32(1) / sqrt32(float32(v.D))
	if norm != 0 {
		mag *= norm
	}
	for i := 0; i < v.D; i++ {
		word := v.Bits[i/64]
		if word&(1<<uint(i%64)) != 0 {
			out[i] = mag
		} else {
			out[i] = -mag
		}
	}
	return out
}

// BINDistance maps Hamming distance between bitmaps to squared angular
// distance on the unit sphere: 2*(popcount/D), so identical signs give 0
// and fully opposite signs give 2.
func BINDistance(a, b BinVector) (float32, error) {
	if a.D != b.D || len(a.Bits) != len(b.Bits) {
		return 0, ErrBadInput
	}
	var mismatches int
	for i := range a.Bits {
		mismatches += bits.OnesCount64(a.Bits[i] ^ b.Bits[i])
	}
	if a.D == 0 {
		return 0, nil
	}
	return 2 * float32(mismatches) / float32(a.D), nil
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

package distance

import "math"

// Distance dispatches to the kernel matching both operands' Kind. Both
// arguments must share the same concrete type; ErrKindMismatch otherwise.
func Distance(a, b Vector) (float32, error) {
	switch av := a.(type) {
	case FP32Vector:
		bv, ok := b.(FP32Vector)
		if !ok {
			return 0, ErrKindMismatch
		}
		return FP32Distance(av, bv)
	case Q8Vector:
		bv, ok := b.(Q8Vector)
		if !ok {
			return 0, ErrKindMismatch
		}
		return Q8Distance(av, bv)
	case BinVector:
		bv, ok := b.(BinVector)
		if !ok {
			return 0, ErrKindMismatch
		}
		return BINDistance(av, bv)
	default:
		return 0, ErrBadInput
	}
}

// Normalize L2-normalizes v in place and returns the pre-normalization
// magnitude. A zero vector is left untouched and reports norm 0.
func Normalize(v []float32) float32 {
	var sumSq float64
	for _, c := range v {
		sumSq += float64(c) * float64(c)
	}
	if sumSq == 0 {
		return 0
	}
	norm := float32(math.Sqrt(sumSq))
	inv := 1 / norm
	for i := range v {
		v[i] *= inv
	}
	return norm
}

// Encode quantizes an already-normalized vector into the requested Kind.
func Encode(kind Kind, v []float32) (Vector, error) {
	switch kind {
	case FP32:
		cp := make([]float32, len(v))
		copy(cp, v)
		return FP32Vector{Data: cp}, nil
	case Q8:
		return EncodeQ8(v), nil
	case BIN:
		return EncodeBIN(v), nil
	default:
		return nil, ErrBadInput
	}
}

// Decode dequantizes v back to float32, scaling by norm when the caller
// wants the original, pre-normalization magnitude (pass norm=0 to keep the
// unit-norm reconstruction).
func Decode(v Vector, norm float32) ([]float32, error) {
	switch vv := v.(type) {
	case FP32Vector:
		out := make([]float32, len(vv.Data))
		copy(out, vv.Data)
		if norm != 0 {
			for i := range out {
				out[i] *= norm
			}
		}
		return out, nil
	case Q8Vector:
		return DecodeQ8(vv, norm), nil
	case BinVector:
		return DecodeBIN(vv, norm), nil
	default:
		return nil, ErrBadInput
	}
}

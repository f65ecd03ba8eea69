// Package distance implements the fixed-point and floating-point similarity
// kernels used by the graph engine, plus the encode/decode routines that
// turn a normalized float32 vector into one of the index's storage formats.
package distance

import "fmt"

// Kind identifies the storage format a vector is quantized into. An index
// picks exactly one Kind at creation time; every node in that index shares
// it.
type Kind uint8

const (
	FP32 Kind = iota
	Q8
	BIN
)

func (k Kind) String() string {
	switch k {
	case FP32:
		return "fp32"
	case Q8:
		return "q8"
	case BIN:
		return "bin"
	default:
		return fmt.Sprintf("distance.Kind(%d)", uint8(k))
	}
}

// ParseKind maps a CLI/config string onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "fp32", "":
		return FP32, nil
	case "q8":
		return Q8, nil
	case "bin":
		return BIN, nil
	default:
		return 0, fmt.Errorf("%w: unrecognized quantization %q", ErrBadInput, s)
	}
}

// Vector is a QuantizedVector: the encoded form a node's similarity is
// computed against. Every Vector implementation reports the Kind it was
// produced by so kernels can refuse to compare across formats.
type Vector interface {
	Kind() Kind
	Dim() int
}

// FP32Vector stores the vector exactly, one float32 per component.
type FP32Vector struct {
	Data []float32
}

func (FP32Vector) Kind() Kind    { return FP32 }
func (v FP32Vector) Dim() int    { return len(v.Data) }

// Q8Vector stores D signed 8-bit components plus the per-vector range used
// to reconstruct them: component c represents a normalized coordinate
// approximately c*Range/127.
type Q8Vector struct {
	Codes []int8
	Range float32
}

func (Q8Vector) Kind() Kind { return Q8 }
func (v Q8Vector) Dim() int { return len(v.Codes) }

// BinVector stores one sign bit per component, packed 64 to a word.
type BinVector struct {
	Bits []uint64
	D    int
}

func (BinVector) Kind() Kind { return BIN }
func (v BinVector) Dim() int { return v.D }

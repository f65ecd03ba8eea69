package distance

import (
	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/gonum"
)

// fp32Kernel computes squared Euclidean distance between two equal-length
// float32 slices. Implementations are selected once at package init based
// on the host's CPU features, the way the teacher's distance dispatch table
// picks between its AVX2 and generic Go paths.
type fp32Kernel func(a, b []float32) float32

var fp32L2 fp32Kernel

var blasEngine = gonum.Implementation{}

func init() {
	if cpuid.CPU.Has(cpuid.AVX2) && cpuid.CPU.Has(cpuid.FMA3) {
		fp32L2 = fp32L2Unrolled
	} else {
		fp32L2 = fp32L2BLAS
	}
}

// fp32L2BLAS expresses squared L2 distance as ||a||^2 + ||b||^2 - 2*a.b,
// using gonum's BLAS Sdot for the dot product, the same building block the
// teacher's gonum-backed kernel uses.
func fp32L2BLAS(a, b []float32) float32 {
	n := len(a)
	dot := blasEngine.Sdot(n, a, 1, b, 1)
	aa := blasEngine.Sdot(n, a, 1, a, 1)
	bb := blasEngine.Sdot(n, b, 1, b, 1)
	d := aa + bb - 2*dot
	if d < 0 {
		d = 0
	}
	return d
}

// fp32L2Unrolled is a 4-wide unrolled pure-Go loop, selected on hosts that
// advertise AVX2/FMA3 so the compiler has a better chance of vectorizing it;
// this port carries no hand-written assembly, only the dispatch shape.
func fp32L2Unrolled(a, b []float32) float32 {
	var sum0, sum1, sum2, sum3 float32
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		sum0 += d0 * d0
		sum1 += d1 * d1
		sum2 += d2 * d2
		sum3 += d3 * d3
	}
	sum := sum0 + sum1 + sum2 + sum3
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// FP32Distance returns squared Euclidean distance on the unit sphere, i.e.
// a value in [0,2] when a and b are both unit vectors.
func FP32Distance(a, b FP32Vector) (float32, error) {
	if len(a.Data) != len(b.Data) {
		return 0, ErrBadInput
	}
	return fp32L2(a.Data, b.Data), nil
}

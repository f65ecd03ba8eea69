package distance

import (
	"math/rand"
	"testing"
)

func TestRangeDiagnosticsSampling(t *testing.T) {
	const numVectors = 2000
	const dims = 32
	vectors := make([][]float32, numVectors)
	for i := range vectors {
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = rand.Float32() * 10
		}
		vectors[i] = vec
	}
	r := RangeDiagnostics(vectors)
	if r <= 0 {
		t.Errorf("expected positive range, got %f", r)
	}
}

func TestRangeDiagnosticsEmpty(t *testing.T) {
	if r := RangeDiagnostics(nil); r != 0 {
		t.Errorf("got %f, want 0", r)
	}
}

func TestCompactRange(t *testing.T) {
	v := []float32{0.1, -0.9, 0.4}
	r := CompactRange(v)
	if r < 0.85 || r > 0.95 {
		t.Errorf("got %f, want ~0.9", r)
	}
}

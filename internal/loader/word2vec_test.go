package loader

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"testing"
)

func writeFixture(t *testing.T, words []string, dim int) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "word2vec-*.bin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.Write(make([]byte, headerSize))
	for wi, w := range words {
		binary.Write(f, binary.LittleEndian, uint16(len(w)))
		f.WriteString(w)
		for i := 0; i < dim; i++ {
			binary.Write(f, binary.LittleEndian, math.Float32bits(float32(wi)+float32(i)*0.01))
		}
	}
	return f.Name()
}

func TestReaderDecodesRecords(t *testing.T) {
	path := writeFixture(t, []string{"cat", "dog", "banana"}, 4)
	r, err := Open(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var got []string
	for {
		e, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, e.Word)
		if len(e.Vector) != 4 {
			t.Errorf("vector length = %d, want 4", len(e.Vector))
		}
	}
	want := []string{"cat", "dog", "banana"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadRespectsLimit(t *testing.T) {
	path := writeFixture(t, []string{"a", "b", "c", "d"}, 2)
	var seen []string
	err := Load(path, 2, 2, func(e Entry) error {
		seen = append(seen, e.Word)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 {
		t.Fatalf("got %v, want 2 entries", seen)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/word2vec.bin", 300); err == nil {
		t.Error("expected error opening missing file")
	}
}

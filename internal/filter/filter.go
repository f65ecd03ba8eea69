package filter

// MatchFunc builds a predicate closure over a compiled Program, in the
// shape the HNSW search path expects for its optional attribute filter.
func MatchFunc(prog *Program) func(attrs []byte) bool {
	return func(attrs []byte) bool {
		return Evaluate(prog, attrs)
	}
}

// Package annidx is the embeddable public facade over the internal HNSW
// engine, quantization layer, and filter-expression compiler: the surface
// an application imports instead of reaching into internal/.
package annidx

import (
	"encoding/json"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/filter"
	"github.com/annkit/annkit/internal/hnsw"
)

// Quantization selects how vectors are stored: Full keeps exact fp32
// components, Q8 quantizes to 8-bit signed integers with a per-vector
// range, Binary keeps only each component's sign.
type Quantization = distance.Kind

const (
	Full   = distance.FP32
	Q8     = distance.Q8
	Binary = distance.BIN
)

// Config controls graph construction. A zero Config is replaced with
// DefaultConfig's values.
type Config = hnsw.Config

// DefaultConfig returns M=16, EFConstruction=200, matching the reference
// build's defaults.
func DefaultConfig() Config { return hnsw.DefaultConfig() }

// Result is one search hit.
type Result = hnsw.Result

// ValidationReport summarizes a graph's structural invariants.
type ValidationReport = hnsw.ValidationReport

// Stats summarizes an index's shape.
type Stats = hnsw.Stats

// Index is an embeddable HNSW vector index.
type Index struct {
	inner *hnsw.Index
}

// New creates an empty index over vectors of dimension dim using the given
// quantization.
func New(dim int, quant Quantization, cfg Config) (*Index, error) {
	idx, err := hnsw.New(dim, quant, cfg)
	if err != nil {
		return nil, err
	}
	return &Index{inner: idx}, nil
}

// Insert adds a vector under id with an optional application value and
// JSON attributes usable by filter expressions. Re-inserting an existing
// id is a no-op that returns nil and leaves the existing node's vector,
// value and attributes unchanged.
func (idx *Index) Insert(id uint64, vector []float32, value any, attrs json.RawMessage) error {
	_, err := idx.inner.Insert(id, vector, value, attrs, 0)
	return err
}

// Delete removes id from the index. Its heavy fields are reclaimed once
// every concurrent reader that could still observe it has moved on.
func (idx *Index) Delete(id uint64) error {
	return idx.inner.DeleteNode(id)
}

// SearchOptions configures Search.
type SearchOptions struct {
	// EF is the dynamic candidate list size; 0 uses the index's default.
	EF int
	// FilterExpr, if non-empty, is compiled and applied as a predicate
	// against each candidate's JSON attributes.
	FilterExpr string
	// FilterEF bounds how many candidates are tested against FilterExpr.
	FilterEF int
}

// Search returns up to k nearest neighbors of query, optionally narrowed
// by a filter expression compiled from FilterExpr. A malformed FilterExpr
// is returned as a *filter.SyntaxError.
func (idx *Index) Search(query []float32, k int, opts SearchOptions) ([]Result, error) {
	hopts := hnsw.SearchOptions{EF: opts.EF, FilterEF: opts.FilterEF}
	if opts.FilterExpr != "" {
		prog, err := filter.Compile(opts.FilterExpr)
		if err != nil {
			return nil, err
		}
		hopts.Filter = filter.MatchFunc(prog)
	}
	return idx.inner.Search(query, k, hopts)
}

// CompilePredicate compiles a filter expression once for reuse across many
// Search calls via SearchWithPredicate, avoiding recompilation per query.
func CompilePredicate(expr string) (*filter.Program, error) {
	return filter.Compile(expr)
}

// SearchWithPredicate is Search's counterpart for a pre-compiled predicate.
func (idx *Index) SearchWithPredicate(query []float32, k int, ef, filterEF int, prog *filter.Program) ([]Result, error) {
	hopts := hnsw.SearchOptions{EF: ef, FilterEF: filterEF}
	if prog != nil {
		hopts.Filter = filter.MatchFunc(prog)
	}
	return idx.inner.Search(query, k, hopts)
}

// GetVector returns the dequantized fp32 vector stored for id.
func (idx *Index) GetVector(id uint64) ([]float32, error) {
	return idx.inner.GetNodeVector(id)
}

// PreparedInsert is the off-lock half of the optimistic insert protocol.
type PreparedInsert = hnsw.PreparedInsert

// PrepareInsert runs the candidate-search phase of an insert without
// acquiring the write lock. Pair with CommitInsert.
func (idx *Index) PrepareInsert(id uint64, vector []float32, value any, attrs json.RawMessage) (*PreparedInsert, error) {
	return idx.inner.PrepareInsert(id, vector, value, attrs, 0)
}

// CommitInsert installs a PreparedInsert if the graph hasn't changed since
// it was prepared, or reports ErrConflict if it has.
func (idx *Index) CommitInsert(p *PreparedInsert) error {
	_, err := idx.inner.CommitInsert(p)
	return err
}

// AcquireReadSlot registers the caller as an active reader. Pair with
// ReleaseReadSlot; only needed by callers driving the engine below this
// facade's Search, which already does this internally.
func (idx *Index) AcquireReadSlot() int { return idx.inner.AcquireReadSlot() }

// ReleaseReadSlot releases a slot acquired via AcquireReadSlot.
func (idx *Index) ReleaseReadSlot(slot int) { idx.inner.ReleaseReadSlot(slot) }

// PrintStats renders Stats as an operator-facing text report.
func (idx *Index) PrintStats() string { return idx.inner.PrintStats() }

// Close releases no resources today; the index is a pure in-memory
// structure with no file handles or background goroutines to stop. It
// exists so callers can defer it without caring whether a future backing
// store needs an orderly shutdown.
func (idx *Index) Close() error { return nil }

// NodeCount returns the number of live nodes.
func (idx *Index) NodeCount() int { return idx.inner.NodeCount() }

// ValidateGraph checks reachability and neighbor-list reciprocity across
// the whole graph. Intended for tests and operator diagnostics, not the
// hot path.
func (idx *Index) ValidateGraph() ValidationReport { return idx.inner.ValidateGraph() }

// Stats snapshots the index's current shape.
func (idx *Index) Stats() Stats { return idx.inner.Stats() }

// TestGraphRecall runs the recall self-test against a brute-force
// baseline over up to samples random live nodes, each queried for k
// neighbors, and returns the mean recall@k.
func (idx *Index) TestGraphRecall(samples, k int) float64 {
	return idx.inner.TestGraphRecall(samples, k)
}

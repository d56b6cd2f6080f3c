// Package eval provides the evaluator that executes a computation graph
// bottom-up against a tabular provider. Per-node results are memoized
// write-once for the duration of one evaluation pass, so shared
// subexpressions (DAG fan-in) are computed exactly once. Independent
// requested outputs are evaluated concurrently; a failure is confined to
// the outputs that depend on the failing node.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seera-networks/ISEKAI-comp/internal/provider"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

// Evaluator executes computation graphs against one tabular provider.
// It is stateless across evaluations and safe for concurrent use; input
// columns are read-only and shared, every evaluation owns its own memo
// table.
type Evaluator struct {
	prov        provider.Provider
	logger      *slog.Logger
	parallelism int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the structured logger. Defaults to a discard handler.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = logger }
}

// WithParallelism bounds the number of output subgraphs evaluated
// concurrently. Defaults to 4; 1 forces sequential evaluation.
func WithParallelism(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.parallelism = n
		}
	}
}

// New creates an Evaluator over the given provider.
func New(prov provider.Provider, opts ...Option) *Evaluator {
	e := &Evaluator{
		prov:        prov,
		logger:      slog.New(slog.DiscardHandler),
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// evaluation is the per-pass state: the write-once memo table and the
// per-node results. Discarded when the pass ends.
type evaluation struct {
	ev   *Evaluator
	g    *graph.Graph
	once []sync.Once
	vals []*value
	errs []error
}

// Evaluate runs the graph and returns one Output per requested output
// index, in Add-call order. Evaluation failures are reported per output;
// the returned error covers only structural problems with the graph
// itself.
func (e *Evaluator) Evaluate(ctx context.Context, g *graph.Graph) ([]Output, error) {
	if g == nil || g.Len() == 0 {
		return nil, fmt.Errorf("empty graph")
	}
	e.logger.Debug("starting evaluation", "nodes", g.Len(), "outputs", len(g.Outputs()))

	// A graph built through the Builder is acyclic by construction; a
	// deserialized one may not be. Validate up front so the parallel pass
	// below runs on a known-acyclic structure.
	cycleErr := detectCycles(g)

	pass := &evaluation{
		ev:   e,
		g:    g,
		once: make([]sync.Once, g.Len()),
		vals: make([]*value, g.Len()),
		errs: make([]error, g.Len()),
	}

	outputs := make([]Output, len(g.Outputs()))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.parallelism)
	for i, idx := range g.Outputs() {
		eg.Go(func() error {
			outputs[i] = pass.materialize(egctx, idx, cycleErr)
			return nil
		})
	}
	_ = eg.Wait()

	for _, out := range outputs {
		if out.Err != nil {
			e.logger.Debug("output failed", "node", out.Node, "error", out.Err)
		}
	}
	return outputs, nil
}

// materialize evaluates one requested output and shapes its result.
func (p *evaluation) materialize(ctx context.Context, idx int, cycleErr map[int]error) Output {
	rec := p.g.Records()[idx]
	if err, ok := cycleErr[idx]; ok {
		return Output{Node: idx, Err: err}
	}
	if rec.Op == graph.OpLoc {
		// Raw provider columns cannot be materialized directly; they must
		// be wrapped, typically by an id node.
		return Output{Node: idx, Err: core.NewError(idx, rec.Op.String(),
			core.KindTypeMismatch, "loc node cannot be materialized directly")}
	}
	v, err := p.eval(ctx, idx)
	if err != nil {
		return Output{Node: idx, Err: err}
	}
	out := Output{Node: idx}
	if v.frame != nil {
		out.Columns = make([]core.ColumnData, len(v.frame.Cols))
		for i, c := range v.frame.Cols {
			out.Columns[i] = core.ColumnData{Name: c.Name(), Values: c.Values()}
		}
	} else {
		out.Payload = v.payload
	}
	return out
}

// eval returns the memoized value of node idx, computing it (and its
// children, depth-first) on first use. A failed child propagates the same
// failure to every ancestor.
func (p *evaluation) eval(ctx context.Context, idx int) (*value, error) {
	p.once[idx].Do(func() {
		rec := p.g.Records()[idx]
		children := make([]*value, len(rec.Children))
		for i, c := range rec.Children {
			v, err := p.eval(ctx, c)
			if err != nil {
				p.errs[idx] = err
				return
			}
			children[i] = v
		}
		p.vals[idx], p.errs[idx] = p.apply(ctx, idx, rec, children)
	})
	if p.errs[idx] != nil {
		return nil, p.errs[idx]
	}
	return p.vals[idx], nil
}

// Validate checks a deserialized graph for cycles without evaluating it.
// It returns the first cycle error found, or nil for an acyclic graph.
func Validate(g *graph.Graph) error {
	if g == nil || g.Len() == 0 {
		return fmt.Errorf("empty graph")
	}
	for _, err := range detectCycles(g) {
		return err
	}
	return nil
}

// detectCycles walks the arena from each output and records, per affected
// output, the node at which a cycle was found. The append-only builder
// cannot produce one, but a corrupted serialized graph can.
func detectCycles(g *graph.Graph) map[int]error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, g.Len())
	recs := g.Records()

	var visit func(idx int) error
	visit = func(idx int) error {
		switch state[idx] {
		case done:
			return nil
		case visiting:
			return core.NewError(idx, recs[idx].Op.String(), core.KindCycleDetected,
				"node reachable from itself")
		}
		state[idx] = visiting
		for _, c := range recs[idx].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		state[idx] = done
		return nil
	}

	failed := make(map[int]error)
	for _, out := range g.Outputs() {
		if _, ok := failed[out]; ok {
			continue
		}
		// Reset visiting marks between outputs so each output reports the
		// cycle on its own path; completed nodes stay done.
		for i, s := range state {
			if s == visiting {
				state[i] = unvisited
			}
		}
		if err := visit(out); err != nil {
			failed[out] = err
		}
	}
	return failed
}

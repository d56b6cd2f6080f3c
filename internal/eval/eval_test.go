package eval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seera-networks/ISEKAI-comp/internal/provider"
	"github.com/seera-networks/ISEKAI-comp/pkg/column"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

// memProvider serves fixed columns and counts fetches per column. The
// evaluator calls GetColumn from several goroutines, so the counter is
// guarded.
type memProvider struct {
	cols map[string]*column.Column

	mu      sync.Mutex
	fetches map[string]int
}

func newMemProvider(cols ...*column.Column) *memProvider {
	m := &memProvider{
		cols:    make(map[string]*column.Column, len(cols)),
		fetches: make(map[string]int),
	}
	for _, c := range cols {
		m.cols[c.Name()] = c
	}
	return m
}

func (m *memProvider) Columns(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.cols))
	for name := range m.cols {
		names = append(names, name)
	}
	return names, nil
}

func (m *memProvider) GetColumn(_ context.Context, name string) (*column.Column, error) {
	m.mu.Lock()
	m.fetches[name]++
	m.mu.Unlock()
	c, ok := m.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", provider.ErrUnknownColumn, name)
	}
	return c, nil
}

func (m *memProvider) Close() error { return nil }

// evalOutputs builds a graph from the given output nodes and evaluates it.
func evalOutputs(t *testing.T, prov provider.Provider, nodes ...*graph.Node) []Output {
	t.Helper()
	b := graph.NewBuilder()
	for _, n := range nodes {
		b.Add(n)
	}
	g, _, err := b.Build()
	require.NoError(t, err)

	outputs, err := New(prov).Evaluate(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, outputs, len(nodes))
	return outputs
}

// evalOne evaluates a single output node and requires success.
func evalOne(t *testing.T, prov provider.Provider, n *graph.Node) Output {
	t.Helper()
	out := evalOutputs(t, prov, n)[0]
	require.NoError(t, out.Err)
	return out
}

// evalErr evaluates a single output node and requires failure.
func evalErr(t *testing.T, prov provider.Provider, n *graph.Node) error {
	t.Helper()
	out := evalOutputs(t, prov, n)[0]
	require.Error(t, out.Err)
	return out.Err
}

func TestEvaluate_EmptyGraph(t *testing.T) {
	_, err := New(newMemProvider()).Evaluate(context.Background(), &graph.Graph{})
	assert.Error(t, err)
}

func TestEvaluate_LocOutputRejected(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1}))

	err := evalErr(t, prov, graph.Loc("x"))
	assert.Equal(t, core.KindTypeMismatch, core.KindOf(err))
}

func TestEvaluate_UnknownColumn(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1}))

	err := evalErr(t, prov, graph.Id([]*graph.Node{graph.Loc("nope")}))
	assert.Equal(t, core.KindUnknownColumn, core.KindOf(err))
}

// failingProvider reports an infrastructure failure for every column.
type failingProvider struct {
	memProvider
	err error
}

func (f *failingProvider) GetColumn(context.Context, string) (*column.Column, error) {
	return nil, f.err
}

func TestEvaluate_ProviderFailureIsNotUnknownColumn(t *testing.T) {
	cause := errors.New("database is locked")
	prov := &failingProvider{err: cause}

	err := evalErr(t, prov, graph.Id([]*graph.Node{graph.Loc("x")}))
	assert.Equal(t, core.KindProviderFailure, core.KindOf(err))
	assert.ErrorIs(t, err, cause)
}

func TestEvaluate_SharedNodeComputedOnce(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1, 2, 3}))

	x := graph.Loc("x")
	outs := evalOutputs(t, prov,
		graph.Mean([]*graph.Node{x}),
		graph.Median([]*graph.Node{x}),
	)
	require.NoError(t, outs[0].Err)
	require.NoError(t, outs[1].Err)
	assert.Equal(t, 1, prov.fetches["x"], "shared loc must be fetched once")
}

func TestEvaluate_SiblingOutputsIndependent(t *testing.T) {
	prov := newMemProvider(
		column.NewFloat64("good", []float64{1, 2, 3}),
		column.NewFloat64("short", []float64{5}),
	)

	outs := evalOutputs(t, prov,
		graph.Mean([]*graph.Node{graph.Loc("good")}),
		graph.Var([]*graph.Node{graph.Loc("short")}),
	)

	require.NoError(t, outs[0].Err)
	assert.Equal(t, []any{2.0}, outs[0].Columns[0].Values)

	require.Error(t, outs[1].Err)
	assert.Equal(t, core.KindInsufficientRows, core.KindOf(outs[1].Err))
}

func TestEvaluate_FailurePropagatesToAncestors(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1}))

	bad := graph.Id([]*graph.Node{graph.Loc("missing")})
	err := evalErr(t, prov, graph.AddScalar([]*graph.Node{bad}, 1))
	assert.Equal(t, core.KindUnknownColumn, core.KindOf(err))
}

func TestEvaluate_CycleDetected(t *testing.T) {
	g, err := graph.FromRecords([]graph.Record{
		{Op: graph.OpID, Children: []int{1}},
		{Op: graph.OpID, Children: []int{0}},
	}, []int{0})
	require.NoError(t, err)

	outs, err := New(newMemProvider()).Evaluate(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	require.Error(t, outs[0].Err)
	assert.Equal(t, core.KindCycleDetected, core.KindOf(outs[0].Err))
}

func TestEvaluate_SelfReferenceDetected(t *testing.T) {
	g, err := graph.FromRecords([]graph.Record{
		{Op: graph.OpID, Children: []int{0}},
	}, []int{0})
	require.NoError(t, err)

	require.Error(t, Validate(g))

	outs, err := New(newMemProvider()).Evaluate(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, core.KindCycleDetected, core.KindOf(outs[0].Err))
}

func TestEvaluate_CycleDoesNotPoisonAcyclicSibling(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{4}))

	g, err := graph.FromRecords([]graph.Record{
		{Op: graph.OpLoc, Params: graph.Params{Names: []string{"x"}}},
		{Op: graph.OpID, Children: []int{0}},
		{Op: graph.OpID, Children: []int{2}}, // self loop
	}, []int{1, 2})
	require.NoError(t, err)

	outs, err := New(prov).Evaluate(context.Background(), g)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.NoError(t, outs[0].Err)
	assert.Equal(t, core.KindCycleDetected, core.KindOf(outs[1].Err))
}

func TestEvaluate_DeserializedGraph(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1, 2, 3, 4}))

	x := graph.Loc("x")
	g, _, err := graph.NewBuilder().
		Add(graph.Mean([]*graph.Node{x})).
		Add(graph.Head([]*graph.Node{x}, 2)).
		Build()
	require.NoError(t, err)

	data, err := json.Marshal(g)
	require.NoError(t, err)
	var decoded graph.Graph
	require.NoError(t, json.Unmarshal(data, &decoded))

	outs, err := New(prov).Evaluate(context.Background(), &decoded)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	require.NoError(t, outs[0].Err)
	require.NoError(t, outs[1].Err)
	assert.Equal(t, []any{2.5}, outs[0].Columns[0].Values)
	assert.Equal(t, []any{1.0, 2.0}, outs[1].Columns[0].Values)
}

func TestEvaluate_SequentialParallelism(t *testing.T) {
	prov := newMemProvider(column.NewFloat64("x", []float64{1, 2, 3}))

	x := graph.Loc("x")
	g, _, err := graph.NewBuilder().
		Add(graph.Mean([]*graph.Node{x})).
		Add(graph.Count([]*graph.Node{x})).
		Build()
	require.NoError(t, err)

	outs, err := New(prov, WithParallelism(1)).Evaluate(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0}, outs[0].Columns[0].Values)
	assert.Equal(t, []any{3.0}, outs[1].Columns[0].Values)
}

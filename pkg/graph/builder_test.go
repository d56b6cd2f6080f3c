package graph

import (
	"testing"

	"github.com/seera-networks/ISEKAI-comp/pkg/core"
)

func TestBuilder_ChildrenPrecedeParents(t *testing.T) {
	x := Loc("x")
	y := Loc("y")
	sum := Add(x, y)

	g, outs, err := NewBuilder().Add(sum).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(outs) != 1 {
		t.Fatalf("expected 1 output, got %d", len(outs))
	}
	for i, rec := range g.Records() {
		for _, c := range rec.Children {
			if c >= i {
				t.Errorf("record %d references child %d, children must precede parents", i, c)
			}
		}
	}
}

func TestBuilder_SharedNodeDeduplicated(t *testing.T) {
	x := Loc("x")
	a := AddScalar([]*Node{x}, 1)
	b := MulScalar([]*Node{x}, 2)

	g, _, err := NewBuilder().Add(a).Add(b).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	// x, a, b: the shared loc is stored once.
	if g.Len() != 3 {
		t.Errorf("expected 3 records, got %d", g.Len())
	}
	locs := 0
	for _, rec := range g.Records() {
		if rec.Op == OpLoc {
			locs++
		}
	}
	if locs != 1 {
		t.Errorf("expected the shared loc node once, found %d", locs)
	}
}

func TestBuilder_SameNodeAddedTwice(t *testing.T) {
	m := Mean([]*Node{Loc("x")})

	g, outs, err := NewBuilder().Add(m).Add(m).Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 output slots, got %d", len(outs))
	}
	if outs[0] != outs[1] {
		t.Errorf("both slots should point at the same record, got %d and %d", outs[0], outs[1])
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 records, got %d", g.Len())
	}
}

func TestBuilder_ConstructionErrorSurfaces(t *testing.T) {
	bad := CmpArith([]*Node{Loc("x")}, 1, CmpMode("NE"))

	_, _, err := NewBuilder().Add(bad).Build()
	if err == nil {
		t.Fatal("expected build to fail for invalid comparison mode")
	}
	if !core.IsKind(err, core.KindInvalidMode) {
		t.Errorf("expected invalid_mode, got %v", err)
	}
}

func TestBuilder_RenameArity(t *testing.T) {
	bad := Id([]*Node{Loc("x"), Loc("y")}, "only-one")

	_, _, err := NewBuilder().Add(bad).Build()
	if err == nil {
		t.Fatal("expected build to fail for rename arity mismatch")
	}
	if !core.IsKind(err, core.KindArityMismatch) {
		t.Errorf("expected arity_mismatch, got %v", err)
	}
}

func TestBuilder_NestedConstructionError(t *testing.T) {
	// The violation sits two levels below the requested output.
	bad := Where([]*Node{Loc("x")}, 0, CmpMode("NEQ"), "0")
	out := Mean([]*Node{AddScalar([]*Node{bad}, 1)})

	_, _, err := NewBuilder().Add(out).Build()
	if err == nil {
		t.Fatal("expected build to reject the nested invalid node")
	}
	if !core.IsKind(err, core.KindInvalidMode) {
		t.Errorf("expected invalid_mode, got %v", err)
	}
}

func TestBuilder_EmptyModelInputs(t *testing.T) {
	if _, _, err := NewBuilder().Add(LinearRegression(Loc("y"))).Build(); err == nil {
		t.Error("linear regression without explanatory columns should fail")
	}
	if _, _, err := NewBuilder().Add(Null(nil)).Build(); err == nil {
		t.Error("null check over an empty list should fail")
	}
}

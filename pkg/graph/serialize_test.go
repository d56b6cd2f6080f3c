package graph

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

func buildSample(t *testing.T) *Graph {
	t.Helper()
	x := Loc("x")
	y := Loc("y")
	filtered := Where([]*Node{x}, 0, CmpGT, "0")
	g, _, err := NewBuilder().
		Add(Id([]*Node{filtered}, "pos")).
		Add(Gt(x, y)).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return g
}

func TestGraph_JSONRoundTrip(t *testing.T) {
	g := buildSample(t)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Graph
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(g.Outputs(), decoded.Outputs()) {
		t.Errorf("outputs changed: %v vs %v", g.Outputs(), decoded.Outputs())
	}
	if len(g.Records()) != len(decoded.Records()) {
		t.Fatalf("record count changed: %d vs %d", len(g.Records()), len(decoded.Records()))
	}
	for i := range g.Records() {
		a, b := g.Records()[i], decoded.Records()[i]
		if a.Op != b.Op || !reflect.DeepEqual(a.Children, b.Children) {
			t.Errorf("record %d changed: %+v vs %+v", i, a, b)
		}
		if a.Params.Value != nil && (b.Params.Value == nil || *a.Params.Value != *b.Params.Value) {
			t.Errorf("record %d lost its scalar param", i)
		}
	}
}

func TestGraph_UnmarshalRejectsUnknownOp(t *testing.T) {
	raw := `{"nodes":[{"op":"transmogrify"}],"outputs":[0]}`
	var g Graph
	if err := json.Unmarshal([]byte(raw), &g); err == nil {
		t.Error("expected unknown operator to be rejected")
	}
}

func TestGraph_UnmarshalRejectsBadIndices(t *testing.T) {
	cases := map[string]string{
		"child out of range":  `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"id","children":[5]}],"outputs":[1]}`,
		"negative child":      `{"nodes":[{"op":"id","children":[-1]}],"outputs":[0]}`,
		"output out of range": `{"nodes":[{"op":"loc","params":{"names":["x"]}}],"outputs":[3]}`,
	}
	for name, raw := range cases {
		var g Graph
		if err := json.Unmarshal([]byte(raw), &g); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestGraph_UnmarshalRejectsBadCmpMode(t *testing.T) {
	raw := `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"cmp_arith","children":[0],"params":{"value":1,"cmp":"NE"}}],"outputs":[1]}`
	var g Graph
	if err := json.Unmarshal([]byte(raw), &g); err == nil {
		t.Error("expected unknown comparison mode to be rejected")
	}
}

func TestGraph_UnmarshalAcceptsAllCmpModes(t *testing.T) {
	for _, mode := range []CmpMode{CmpLT, CmpLE, CmpEQ, CmpGE, CmpGT} {
		raw := fmt.Sprintf(`{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"cmp_arith","children":[0],"params":{"value":1,"cmp":%q}}],"outputs":[1]}`, mode)
		var g Graph
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			t.Errorf("mode %s: %v", mode, err)
		}
	}
}

func TestGraph_UnmarshalRejectsMissingParams(t *testing.T) {
	cases := map[string]string{
		"cmp_arith without value": `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"cmp_arith","children":[0],"params":{"cmp":"LT"}}],"outputs":[1]}`,
		"cmp_arith without mode":  `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"cmp_arith","children":[0],"params":{"value":1}}],"outputs":[1]}`,
		"where without value":     `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"where","children":[0],"params":{"cmp":"GT","replacement":"0"}}],"outputs":[1]}`,
		"negative head limit":     `{"nodes":[{"op":"loc","params":{"names":["x"]}},{"op":"head","children":[0],"params":{"n":-1}}],"outputs":[1]}`,
	}
	for name, raw := range cases {
		var g Graph
		if err := json.Unmarshal([]byte(raw), &g); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestGraph_UnmarshalAllowsForwardReferences(t *testing.T) {
	// A forward (or self) reference is representable on the wire; rejecting
	// it is the evaluator's job, not the decoder's.
	raw := `{"nodes":[{"op":"id","children":[1]},{"op":"id","children":[0]}],"outputs":[0]}`
	var g Graph
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Errorf("structural decode should succeed, got %v", err)
	}
}

func TestFromRecords_ValidatesRanges(t *testing.T) {
	_, err := FromRecords([]Record{{Op: OpID, Children: []int{7}}}, []int{0})
	if err == nil {
		t.Error("expected out-of-range child to be rejected")
	}
	_, err = FromRecords([]Record{{Op: OpLoc}}, []int{2})
	if err == nil {
		t.Error("expected out-of-range output to be rejected")
	}
}

func TestOpByName_CoversCatalogue(t *testing.T) {
	for op, name := range opNames {
		got, ok := OpByName(name)
		if !ok || got != op {
			t.Errorf("OpByName(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := OpByName("nope"); ok {
		t.Error("unexpected resolution for unknown name")
	}
}

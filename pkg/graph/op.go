// Package graph provides the node model and builder for the computation
// graph. Nodes form a closed operator catalogue; a graph is assembled by an
// append-only arena walk, which makes it acyclic by construction. The wire
// form (node list plus requested output indices) is JSON and can cross a
// process boundary.
package graph

import "fmt"

// Op tags an operator in the node catalogue.
type Op int

const (
	OpLoc Op = iota
	OpID
	OpHead
	OpCount
	OpMean
	OpMedian
	OpMode
	OpVar
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpLog
	OpGt
	OpCmpArith
	OpWhere
	OpIf
	OpFull
	OpNull
	OpNan
	OpBoolToStr
	OpColumn
	OpZip
	OpNot
	OpLinearRegression
	OpTTestLinearRegression
	OpLogisticRegression
	OpWaldTestLogisticRegression
)

var opNames = map[Op]string{
	OpLoc:                        "loc",
	OpID:                         "id",
	OpHead:                       "head",
	OpCount:                      "count",
	OpMean:                       "mean",
	OpMedian:                     "median",
	OpMode:                       "mode",
	OpVar:                        "var",
	OpAdd:                        "add",
	OpSub:                        "sub",
	OpMul:                        "mul",
	OpDiv:                        "div",
	OpLog:                        "log",
	OpGt:                         "gt",
	OpCmpArith:                   "cmp_arith",
	OpWhere:                      "where",
	OpIf:                         "if",
	OpFull:                       "full",
	OpNull:                       "null",
	OpNan:                        "nan",
	OpBoolToStr:                  "bool_to_str",
	OpColumn:                     "column",
	OpZip:                        "zip",
	OpNot:                        "not",
	OpLinearRegression:           "linear_regression",
	OpTTestLinearRegression:      "t_test_linear_regression",
	OpLogisticRegression:         "logistic_regression",
	OpWaldTestLogisticRegression: "wald_test_logistic_regression",
}

var opByName = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// OpByName resolves a wire-form operator name.
func OpByName(name string) (Op, bool) {
	op, ok := opByName[name]
	return op, ok
}

// CmpMode selects the comparison applied by cmp_arith and where nodes.
type CmpMode string

// Recognized comparison modes. Anything else is rejected at construction
// time.
const (
	CmpLT CmpMode = "LT"
	CmpLE CmpMode = "LE"
	CmpEQ CmpMode = "EQ"
	CmpGE CmpMode = "GE"
	CmpGT CmpMode = "GT"
)

// ValidCmpMode reports whether m is one of the recognized modes.
func ValidCmpMode(m CmpMode) bool {
	switch m {
	case CmpLT, CmpLE, CmpEQ, CmpGE, CmpGT:
		return true
	}
	return false
}

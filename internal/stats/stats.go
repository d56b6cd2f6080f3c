// Package stats implements the statistical model library behind the
// regression and hypothesis-test operators: ordinary least squares,
// binomial logistic regression via iteratively reweighted least squares,
// and the associated t- and Wald tests. Linear algebra and distributions
// come from gonum.
package stats

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Sentinel failures. Callers map these onto the node-level error taxonomy.
var (
	// ErrSingularDesign reports a design matrix whose normal equations
	// cannot be solved (collinear columns, or too few rows).
	ErrSingularDesign = errors.New("singular design matrix")
	// ErrNonConvergence reports that IRLS hit the iteration cap before
	// the coefficient change fell below tolerance.
	ErrNonConvergence = errors.New("irls did not converge")
	// ErrInsufficientRows reports too few observations for the requested
	// statistic.
	ErrInsufficientRows = errors.New("insufficient rows")
	// ErrShapeMismatch reports response/design length disagreement.
	ErrShapeMismatch = errors.New("response and design lengths differ")
)

// designMatrix builds the n x (k+1) design matrix with an intercept column
// of ones prepended to the explanatory columns.
func designMatrix(n int, xs [][]float64) *mat.Dense {
	k := len(xs)
	x := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, col := range xs {
			x.Set(i, j+1, col[i])
		}
	}
	return x
}

// checkShapes verifies every explanatory column is as long as the response.
func checkShapes(y []float64, xs [][]float64) error {
	for _, col := range xs {
		if len(col) != len(y) {
			return ErrShapeMismatch
		}
	}
	return nil
}

// normalEquations computes XᵀX (symmetric) and Xᵀy.
func normalEquations(x *mat.Dense, y []float64) (*mat.SymDense, *mat.VecDense) {
	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	yv := mat.NewVecDense(len(y), y)
	_, p := x.Dims()
	xty := mat.NewVecDense(p, nil)
	xty.MulVec(x.T(), yv)
	return &xtx, xty
}

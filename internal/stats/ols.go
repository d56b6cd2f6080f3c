package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OLSFit is a fitted ordinary least squares model.
type OLSFit struct {
	// Terms names the explanatory columns, in design order.
	Terms []string
	// Intercept is the fitted constant term.
	Intercept float64
	// Coefs are the fitted coefficients, aligned with Terms.
	Coefs []float64
	// SSR is the residual sum of squares.
	SSR float64
	// Sigma2 is the residual variance SSR/(n-k-1).
	Sigma2 float64
	// DF is the residual degrees of freedom n-k-1.
	DF int

	// cov is (XᵀX)⁻¹, kept for coefficient inference.
	cov *mat.SymDense
}

// FitOLS solves the normal equations β = (XᵀX)⁻¹Xᵀy through a Cholesky
// factorization of XᵀX. terms names the explanatory columns and must be
// aligned with xs.
func FitOLS(y []float64, xs [][]float64, terms []string) (*OLSFit, error) {
	if err := checkShapes(y, xs); err != nil {
		return nil, err
	}
	n, k := len(y), len(xs)
	if n-k-1 < 1 {
		return nil, ErrInsufficientRows
	}

	x := designMatrix(n, xs)
	xtx, xty := normalEquations(x, y)

	var chol mat.Cholesky
	if ok := chol.Factorize(xtx); !ok {
		return nil, ErrSingularDesign
	}

	beta := mat.NewVecDense(k+1, nil)
	if err := chol.SolveVecTo(beta, xty); err != nil {
		return nil, ErrSingularDesign
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, ErrSingularDesign
	}

	// Residual sum of squares.
	fitted := mat.NewVecDense(n, nil)
	fitted.MulVec(x, beta)
	ssr := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}

	df := n - k - 1
	coefs := make([]float64, k)
	for j := 0; j < k; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return &OLSFit{
		Terms:     terms,
		Intercept: beta.AtVec(0),
		Coefs:     coefs,
		SSR:       ssr,
		Sigma2:    ssr / float64(df),
		DF:        df,
		cov:       &inv,
	}, nil
}

// TTestOLS computes per-coefficient standard errors, t-statistics and
// two-sided p-values for a fitted OLS model. Maps are keyed by term name;
// the constant term is keyed "intercept". P-values come from the Student-t
// distribution with the fit's residual degrees of freedom.
type TTestOLS struct {
	StandardErrors map[string]float64
	TStatistics    map[string]float64
	PValues        map[string]float64
	DF             int
}

// TTest runs the coefficient t-test over a fitted OLS model.
func (f *OLSFit) TTest(interceptTerm string) *TTestOLS {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(f.DF)}
	res := &TTestOLS{
		StandardErrors: make(map[string]float64, len(f.Terms)+1),
		TStatistics:    make(map[string]float64, len(f.Terms)+1),
		PValues:        make(map[string]float64, len(f.Terms)+1),
		DF:             f.DF,
	}
	record := func(term string, est float64, j int) {
		se := math.Sqrt(f.Sigma2 * f.cov.At(j, j))
		t := est / se
		res.StandardErrors[term] = se
		res.TStatistics[term] = t
		res.PValues[term] = 2 * (1 - dist.CDF(math.Abs(t)))
	}
	record(interceptTerm, f.Intercept, 0)
	for j, term := range f.Terms {
		record(term, f.Coefs[j], j+1)
	}
	return res
}

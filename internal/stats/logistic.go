package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// IRLS stopping criteria: iterate until the max absolute coefficient
// change falls below irlsTol, give up at irlsMaxIter.
const (
	irlsTol     = 1e-8
	irlsMaxIter = 50
)

// LogitFit is a fitted binomial logistic regression model.
type LogitFit struct {
	// Terms names the explanatory columns, in design order.
	Terms []string
	// Intercept is the fitted constant term.
	Intercept float64
	// Coefs are the fitted coefficients, aligned with Terms.
	Coefs []float64
	// Iterations is the number of IRLS steps taken.
	Iterations int

	// cov is (XᵀWX)⁻¹ at convergence, the inverse information matrix.
	cov *mat.SymDense
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// FitLogistic fits y (0/1 coded) on xs via iteratively reweighted least
// squares: β ← β + (XᵀWX)⁻¹Xᵀ(y−p) with p = sigmoid(Xβ) and
// W = diag(p(1−p)). Returns ErrNonConvergence when the iteration cap is
// reached before tolerance, ErrSingularDesign when XᵀWX cannot be
// factorized at any step. A partially iterated fit is never returned.
func FitLogistic(y []float64, xs [][]float64, terms []string) (*LogitFit, error) {
	if err := checkShapes(y, xs); err != nil {
		return nil, err
	}
	n, k := len(y), len(xs)
	if n < k+1 {
		return nil, ErrInsufficientRows
	}

	x := designMatrix(n, xs)
	p := k + 1
	beta := mat.NewVecDense(p, nil)
	eta := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(p, nil)
	delta := mat.NewVecDense(p, nil)
	resid := mat.NewVecDense(n, nil)
	xw := mat.NewDense(n, p, nil)

	var chol mat.Cholesky
	converged := false
	iter := 0
	for ; iter < irlsMaxIter; iter++ {
		eta.MulVec(x, beta)
		for i := 0; i < n; i++ {
			mu := sigmoid(eta.AtVec(i))
			w := mu * (1 - mu)
			resid.SetVec(i, y[i]-mu)
			for j := 0; j < p; j++ {
				xw.Set(i, j, x.At(i, j)*w)
			}
		}

		// XᵀWX and the score Xᵀ(y−p).
		var xtwx mat.Dense
		xtwx.Mul(x.T(), xw)
		info := symFromDense(&xtwx)
		grad.MulVec(x.T(), resid)

		if ok := chol.Factorize(info); !ok {
			return nil, ErrSingularDesign
		}
		if err := chol.SolveVecTo(delta, grad); err != nil {
			return nil, ErrSingularDesign
		}
		beta.AddVec(beta, delta)

		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if d := math.Abs(delta.AtVec(j)); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < irlsTol {
			converged = true
			iter++
			break
		}
	}
	if !converged {
		return nil, ErrNonConvergence
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, ErrSingularDesign
	}

	coefs := make([]float64, k)
	for j := 0; j < k; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return &LogitFit{
		Terms:      terms,
		Intercept:  beta.AtVec(0),
		Coefs:      coefs,
		Iterations: iter,
		cov:        &inv,
	}, nil
}

// symFromDense copies a (numerically) symmetric dense matrix into a
// SymDense, averaging across the diagonal to absorb floating-point
// asymmetry.
func symFromDense(src *mat.Dense) *mat.SymDense {
	n, _ := src.Dims()
	dst := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, (src.At(i, j)+src.At(j, i))/2)
		}
	}
	return dst
}

// WaldTestLogit holds per-term and joint Wald statistics for a fitted
// logistic model. Per-term statistics are squared z-scores with chi-squared
// (1 df) p-values; Statistic is the joint βᵀΣ⁻¹β over the explanatory
// coefficients with DF = their count.
type WaldTestLogit struct {
	StandardErrors map[string]float64
	Statistics     map[string]float64
	PValues        map[string]float64
	Statistic      float64
	DF             int
}

// WaldTest runs the Wald test over a fitted logistic model.
func (f *LogitFit) WaldTest(interceptTerm string) (*WaldTestLogit, error) {
	k := len(f.Terms)
	chi1 := distuv.ChiSquared{K: 1}
	res := &WaldTestLogit{
		StandardErrors: make(map[string]float64, k+1),
		Statistics:     make(map[string]float64, k+1),
		PValues:        make(map[string]float64, k+1),
		DF:             k,
	}
	record := func(term string, est float64, j int) {
		se := math.Sqrt(f.cov.At(j, j))
		stat := (est / se) * (est / se)
		res.StandardErrors[term] = se
		res.Statistics[term] = stat
		res.PValues[term] = 1 - chi1.CDF(stat)
	}
	record(interceptTerm, f.Intercept, 0)
	for j, term := range f.Terms {
		record(term, f.Coefs[j], j+1)
	}

	// Joint statistic over the explanatory block of the covariance.
	sub := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			sub.SetSym(i, j, f.cov.At(i+1, j+1))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sub); !ok {
		return nil, ErrSingularDesign
	}
	b := mat.NewVecDense(k, f.Coefs)
	v := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(v, b); err != nil {
		return nil, ErrSingularDesign
	}
	res.Statistic = mat.Dot(b, v)
	return res, nil
}

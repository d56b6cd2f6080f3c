package eval

import (
	"errors"

	"github.com/seera-networks/ISEKAI-comp/internal/stats"
	"github.com/seera-networks/ISEKAI-comp/pkg/column"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

// statsErr maps a stats-package failure onto the node error taxonomy.
func statsErr(idx int, rec graph.Record, err error) error {
	kind := core.KindSingularDesign
	switch {
	case errors.Is(err, stats.ErrNonConvergence):
		kind = core.KindNonConvergence
	case errors.Is(err, stats.ErrInsufficientRows):
		kind = core.KindInsufficientRows
	case errors.Is(err, stats.ErrShapeMismatch):
		kind = core.KindRowCountMismatch
	}
	return core.NewError(idx, rec.Op.String(), kind, "%v", err)
}

// designInputs splits the flattened child columns into response and
// explanatory parts and extracts complete cases: any row with a null in
// the response or any explanatory column is dropped.
func designInputs(idx int, rec graph.Record, children []*value) (y []float64, xs [][]float64, terms []string, err error) {
	cols, err := collect(idx, rec, children)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(cols) < 2 {
		return nil, nil, nil, nodeErr(idx, rec, core.KindArityMismatch,
			"need a response and at least one explanatory column, got %d", len(cols))
	}
	n, err := sameLength(idx, rec, cols)
	if err != nil {
		return nil, nil, nil, err
	}
	resp := cols[0]
	exps := cols[1:]
	if err := checkModelColumn(idx, rec, resp, true); err != nil {
		return nil, nil, nil, err
	}
	for _, c := range exps {
		if err := checkModelColumn(idx, rec, c, false); err != nil {
			return nil, nil, nil, err
		}
	}

	y = make([]float64, 0, n)
	xs = make([][]float64, len(exps))
	for j := range xs {
		xs[j] = make([]float64, 0, n)
	}
	terms = make([]string, len(exps))
	for j, c := range exps {
		terms[j] = c.Name()
	}
rows:
	for r := 0; r < n; r++ {
		if resp.IsNull(r) {
			continue
		}
		for _, c := range exps {
			if c.IsNull(r) {
				continue rows
			}
		}
		y = append(y, asFloat(resp, r))
		for j, c := range exps {
			xs[j] = append(xs[j], c.Float(r))
		}
	}
	return y, xs, terms, nil
}

// checkModelColumn validates a regression input. Explanatory columns must
// be numeric; the response may also be boolean (0/1 coded on the fly).
func checkModelColumn(idx int, rec graph.Record, c *column.Column, response bool) error {
	if c.Type() == column.Float64 {
		return nil
	}
	if response && c.Type() == column.Bool {
		return nil
	}
	return nodeErr(idx, rec, core.KindNonNumericColumn,
		"column %q is %s", c.Name(), c.Type())
}

func asFloat(c *column.Column, r int) float64 {
	if c.Type() == column.Bool {
		if c.Bool(r) {
			return 1
		}
		return 0
	}
	return c.Float(r)
}

func (p *evaluation) applyLinearRegression(idx int, rec graph.Record, children []*value) (*value, error) {
	y, xs, terms, err := designInputs(idx, rec, children)
	if err != nil {
		return nil, err
	}
	fit, err := stats.FitOLS(y, xs, terms)
	if err != nil {
		return nil, statsErr(idx, rec, err)
	}
	coefs := make(map[string]float64, len(terms))
	for j, term := range terms {
		coefs[term] = fit.Coefs[j]
	}
	return &value{
		linfit: fit,
		payload: core.LinearRegressionResult{
			Intercept:    fit.Intercept,
			Coefficients: coefs,
			SSR:          fit.SSR,
			Scale:        fit.Sigma2,
		},
	}, nil
}

func (p *evaluation) applyTTest(idx int, rec graph.Record, children []*value) (*value, error) {
	if len(children) < 2 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"need design columns and a fit input")
	}
	fitInput := children[len(children)-1]
	if fitInput.linfit == nil {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch,
			"last input is not a linear regression fit")
	}
	// The design columns are re-validated for shape so a mismatched graph
	// fails here rather than producing mislabeled statistics.
	if _, _, _, err := designInputs(idx, rec, children[:len(children)-1]); err != nil {
		return nil, err
	}
	tt := fitInput.linfit.TTest(core.InterceptTerm)
	return &value{
		payload: core.TTestResult{
			StandardErrors:   tt.StandardErrors,
			TStatistics:      tt.TStatistics,
			PValues:          tt.PValues,
			DegreesOfFreedom: tt.DF,
		},
	}, nil
}

func (p *evaluation) applyLogisticRegression(idx int, rec graph.Record, children []*value) (*value, error) {
	y, xs, terms, err := designInputs(idx, rec, children)
	if err != nil {
		return nil, err
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return nil, nodeErr(idx, rec, core.KindTypeMismatch,
				"response must be boolean or 0/1 coded")
		}
	}
	fit, err := stats.FitLogistic(y, xs, terms)
	if err != nil {
		return nil, statsErr(idx, rec, err)
	}
	coefs := make(map[string]float64, len(terms))
	for j, term := range terms {
		coefs[term] = fit.Coefs[j]
	}
	return &value{
		logit: fit,
		payload: core.LogisticRegressionResult{
			Intercept:    fit.Intercept,
			Coefficients: coefs,
			Converged:    true,
			Iterations:   fit.Iterations,
		},
	}, nil
}

func (p *evaluation) applyWaldTest(idx int, rec graph.Record, children []*value) (*value, error) {
	if len(children) < 2 {
		return nil, nodeErr(idx, rec, core.KindArityMismatch,
			"need explanatory columns and a fit input")
	}
	fitInput := children[len(children)-1]
	if fitInput.logit == nil {
		return nil, nodeErr(idx, rec, core.KindTypeMismatch,
			"last input is not a logistic regression fit")
	}
	cols, err := collect(idx, rec, children[:len(children)-1])
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if err := requireFloat(idx, rec, c); err != nil {
			return nil, err
		}
	}
	wt, err := fitInput.logit.WaldTest(core.InterceptTerm)
	if err != nil {
		return nil, statsErr(idx, rec, err)
	}
	return &value{
		payload: core.WaldTestResult{
			StandardErrors:   wt.StandardErrors,
			Statistics:       wt.Statistics,
			PValues:          wt.PValues,
			WaldStatistic:    wt.Statistic,
			DegreesOfFreedom: wt.DF,
		},
	}, nil
}

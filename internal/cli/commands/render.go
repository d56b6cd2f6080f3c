package commands

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/seera-networks/ISEKAI-comp/internal/eval"
	"github.com/seera-networks/ISEKAI-comp/pkg/core"
)

func renderRunTables(cmd *cobra.Command, outputs []eval.Output) error {
	w := cmd.OutOrStdout()
	for i, out := range outputs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Node %d:\n", out.Node)

		switch {
		case out.Err != nil:
			fmt.Fprintf(w, "  error: %v\n", out.Err)
		case out.Payload != nil:
			renderModel(w, out.Payload)
		default:
			renderColumns(w, out.Columns)
		}
	}
	return nil
}

func renderColumns(w io.Writer, cols []core.ColumnData) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	rows := 0
	for i, c := range cols {
		header[i] = c.Name
		if len(c.Values) > rows {
			rows = len(c.Values)
		}
	}
	t.AppendHeader(header)

	for r := 0; r < rows; r++ {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = cellValue(c.Values, r)
		}
		t.AppendRow(row)
	}
	t.Render()
}

func cellValue(values []any, idx int) string {
	if idx >= len(values) || values[idx] == nil {
		return "NULL"
	}
	switch v := values[idx].(type) {
	case float64:
		if math.IsNaN(v) {
			return "NaN"
		}
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderModel(w io.Writer, payload any) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	switch m := payload.(type) {
	case core.LinearRegressionResult:
		t.AppendHeader(table.Row{"Term", "Coefficient"})
		t.AppendRow(table.Row{core.InterceptTerm, fmt.Sprintf("%g", m.Intercept)})
		for _, term := range sortedKeys(m.Coefficients) {
			t.AppendRow(table.Row{term, fmt.Sprintf("%g", m.Coefficients[term])})
		}
		t.AppendFooter(table.Row{"SSR", fmt.Sprintf("%g", m.SSR)})
	case core.TTestResult:
		t.AppendHeader(table.Row{"Term", "Std Error", "t", "p"})
		for _, term := range sortedKeys(m.TStatistics) {
			t.AppendRow(table.Row{
				term,
				fmt.Sprintf("%g", m.StandardErrors[term]),
				fmt.Sprintf("%g", m.TStatistics[term]),
				fmt.Sprintf("%g", m.PValues[term]),
			})
		}
		t.AppendFooter(table.Row{"df", m.DegreesOfFreedom})
	case core.LogisticRegressionResult:
		t.AppendHeader(table.Row{"Term", "Coefficient"})
		t.AppendRow(table.Row{core.InterceptTerm, fmt.Sprintf("%g", m.Intercept)})
		for _, term := range sortedKeys(m.Coefficients) {
			t.AppendRow(table.Row{term, fmt.Sprintf("%g", m.Coefficients[term])})
		}
		t.AppendFooter(table.Row{"iterations", m.Iterations})
	case core.WaldTestResult:
		t.AppendHeader(table.Row{"Term", "Std Error", "chi2", "p"})
		for _, term := range sortedKeys(m.Statistics) {
			t.AppendRow(table.Row{
				term,
				fmt.Sprintf("%g", m.StandardErrors[term]),
				fmt.Sprintf("%g", m.Statistics[term]),
				fmt.Sprintf("%g", m.PValues[term]),
			})
		}
		t.AppendFooter(table.Row{"joint", fmt.Sprintf("%g (df=%d)", m.WaldStatistic, m.DegreesOfFreedom)})
	default:
		fmt.Fprintf(w, "  %+v\n", payload)
		return
	}
	t.Render()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

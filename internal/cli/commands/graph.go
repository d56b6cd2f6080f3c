package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/seera-networks/ISEKAI-comp/internal/eval"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph GRAPH_FILE",
		Short: "Validate and describe a computation graph",
		Long: `Parse a serialized computation graph and print its structure.

The graph is checked for unknown operations, out-of-range child references,
and cycles, then each node is listed with its operation and dependencies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadGraph(args[0])
			if err != nil {
				return err
			}
			if err := eval.Validate(g); err != nil {
				return fmt.Errorf("invalid graph: %w", err)
			}

			outputs := make(map[int]bool, len(g.Outputs()))
			for _, idx := range g.Outputs() {
				outputs[idx] = true
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Node", "Op", "Children", "Output"})
			for i, rec := range g.Records() {
				marker := ""
				if outputs[i] {
					marker = "yes"
				}
				t.AppendRow(table.Row{i, rec.Op.String(), joinInts(rec.Children), marker})
			}
			t.Render()

			fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d outputs\n", g.Len(), len(g.Outputs()))
			return nil
		},
	}
}

func joinInts(xs []int) string {
	if len(xs) == 0 {
		return "-"
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/seera-networks/ISEKAI-comp/internal/eval"
	"github.com/seera-networks/ISEKAI-comp/pkg/graph"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Format string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run GRAPH_FILE",
		Short: "Evaluate a computation graph",
		Long: `Evaluate a serialized computation graph against the configured data source.

The graph file is a JSON document listing nodes, their operations, and the
node ids to materialize. Each requested output is printed as a table of
column values or, for statistical models, as the model's fit summary.`,
		Example: `  # Evaluate a graph against a CSV file
  isekaicomp run pipeline.json --source-path data.csv

  # Evaluate against a SQLite table, JSON output
  isekaicomp run pipeline.json --source-type sqlite --source-path data.db --source-table obs -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "output format override: table, json")

	return cmd
}

func runGraph(cmd *cobra.Command, graphPath string, opts *RunOptions) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	logger := getLogger(cmd)

	g, err := loadGraph(graphPath)
	if err != nil {
		return err
	}

	prov, err := openProvider(cmd)
	if err != nil {
		return err
	}
	defer prov.Close()

	runID := uuid.New().String()
	logger.Info("starting run",
		"run_id", runID,
		"graph", graphPath,
		"nodes", g.Len(),
		"outputs", len(g.Outputs()))

	ev := eval.New(prov,
		eval.WithLogger(logger),
		eval.WithParallelism(cfg.Parallelism))

	start := time.Now()
	outputs, err := ev.Evaluate(cmd.Context(), g)
	if err != nil {
		return fmt.Errorf("evaluating graph: %w", err)
	}
	logger.Info("run complete", "run_id", runID, "duration", time.Since(start))

	format := cfg.OutputFormat
	if opts.Format != "" {
		format = opts.Format
	}

	switch format {
	case "json":
		return renderRunJSON(cmd, outputs)
	case "table":
		return renderRunTables(cmd, outputs)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// loadGraph reads and validates a serialized graph from a JSON file.
func loadGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph file: %w", err)
	}
	var g graph.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing graph file %s: %w", path, err)
	}
	return &g, nil
}

// runResult is the JSON output shape of a single evaluated node.
type runResult struct {
	Columns []columnResult `json:"columns,omitempty"`
	Model   any            `json:"model,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type columnResult struct {
	Name   string `json:"name"`
	Values []any  `json:"values"`
}

func renderRunJSON(cmd *cobra.Command, outputs []eval.Output) error {
	results := make(map[string]runResult, len(outputs))
	for _, out := range outputs {
		key := strconv.Itoa(out.Node)
		if out.Err != nil {
			results[key] = runResult{Error: out.Err.Error()}
			continue
		}
		if out.Payload != nil {
			results[key] = runResult{Model: out.Payload}
			continue
		}
		cols := make([]columnResult, len(out.Columns))
		for i, c := range out.Columns {
			cols[i] = columnResult{Name: c.Name, Values: c.Values}
		}
		results[key] = runResult{Columns: cols}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

package commands

import (
	"encoding/json"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewColumnsCommand creates the columns command.
func NewColumnsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List columns available in the data source",
		Long:  `List the column names exposed by the configured data source.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			prov, err := openProvider(cmd)
			if err != nil {
				return err
			}
			defer prov.Close()

			names, err := prov.Columns(cmd.Context())
			if err != nil {
				return err
			}

			if cfg.OutputFormat == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(names)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Column"})
			for _, name := range names {
				t.AppendRow(table.Row{name})
			}
			t.Render()
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/export"
)

var parseXLSXOut string

var parseCmd = &cobra.Command{
	Use:   "parse <drawing>",
	Short: "Extract entities from a single drawing page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Counts mode skips fusion and normalization entirely.
		if cfg.Mode == "counts" {
			counts, err := env.Pipeline.RunCounts(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "counts run")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(counts)
		}

		doc, err := env.Pipeline.Run(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("extraction complete",
			zap.String("doc_id", doc.DocID),
			zap.Int("sheets", len(doc.Sheets)),
		)

		if parseXLSXOut != "" {
			if err := export.WriteXLSX(doc, parseXLSXOut); err != nil {
				return err
			}
			zap.L().Info("workbook written", zap.String("path", parseXLSXOut))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseXLSXOut, "xlsx", "", "also write results to an XLSX workbook")
	rootCmd.AddCommand(parseCmd)
}

package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <doc-id> <out.xlsx>",
	Short: "Export a stored extraction result as an XLSX workbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		doc, err := st.GetDocument(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load document")
		}
		if doc == nil {
			return eris.Errorf("no stored document for doc id %s", args[0])
		}

		if err := export.WriteXLSX(doc, args[1]); err != nil {
			return err
		}
		zap.L().Info("workbook written",
			zap.String("doc_id", args[0]),
			zap.String("path", args[1]),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var countsCmd = &cobra.Command{
	Use:   "counts <drawing>",
	Short: "Emit legacy presence and count fields for a drawing",
	Long:  "Runs a single fan-out wave and reconciles provider tallies into the six-field counts record. No fusion, no normalization.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		counts, err := env.Pipeline.RunCounts(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "counts run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	},
}

func init() {
	rootCmd.AddCommand(countsCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/config"
)

var (
	cfg       *config.Config
	rulesFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "fusion rules YAML file overriding the configured weights")
}

var rootCmd = &cobra.Command{
	Use:   "blueprint-cli",
	Short: "Multi-provider extraction for engineering drawings",
	Long:  "Fans drawing regions out to parsing providers, fuses candidates by weighted arbitration, adjudicates conflicts, and emits normalized sheet records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

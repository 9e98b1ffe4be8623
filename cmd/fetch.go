package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/fetcher"
)

var fetchList bool

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download drawings from a plan room",
	Long:  "Downloads a drawing over FTP or HTTP into the configured download directory. With --list, lists the drawing files in an FTP directory instead.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		timeout := time.Duration(cfg.Fetch.TimeoutSecs) * time.Second

		if fetchList {
			f := fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: timeout})
			names, err := f.ListDrawings(ctx, args[0])
			if err != nil {
				return eris.Wrap(err, "list drawings")
			}
			for _, n := range names {
				fmt.Fprintln(os.Stdout, n)
			}
			return nil
		}

		local, n, err := fetcher.FetchToDir(ctx, args[0], cfg.Fetch.DownloadDir, timeout)
		if err != nil {
			return eris.Wrap(err, "fetch drawing")
		}

		zap.L().Info("drawing downloaded",
			zap.String("url", args[0]),
			zap.String("path", local),
			zap.Int64("bytes", n),
		)
		fmt.Fprintln(os.Stdout, local)
		return nil
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchList, "list", false, "list drawing files in an FTP directory")
	rootCmd.AddCommand(fetchCmd)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/blueprint-cli/internal/pipeline"
)

var (
	batchLimit       int
	batchConcurrency int
)

// batchExtensions are the page file types the batch command picks up when
// scanning a directory.
var batchExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract entities from every drawing in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, err := collectDrawings(args[0])
		if err != nil {
			return err
		}

		return processBatch(ctx, paths, batchLimit, batchConcurrency, env.Pipeline)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of drawings to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "drawings processed in parallel")
	rootCmd.AddCommand(batchCmd)
}

// collectDrawings lists drawing files directly under dir, sorted by name.
func collectDrawings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read dir %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !batchExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// processBatch runs the pipeline over paths with bounded concurrency.
// Individual failures are logged and counted, never abort the batch.
func processBatch(ctx context.Context, paths []string, limit, concurrency int, p *pipeline.Pipeline) error {
	if len(paths) == 0 {
		zap.L().Info("no drawings found")
		return nil
	}

	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("drawings", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("drawing", path))

			doc, err := p.Run(gctx, path)
			if err != nil {
				failed.Add(1)
				log.Error("extraction failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("extraction complete",
				zap.String("doc_id", doc.DocID),
				zap.Int("sheets", len(doc.Sheets)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/adapters/driven/version/github"
	"github.com/docdex-io/docdex/internal/chunker"
	"github.com/docdex-io/docdex/internal/config"
	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/services"
	"github.com/docdex-io/docdex/internal/logger"
	"github.com/docdex-io/docdex/internal/watcher"
)

var (
	ingestWatch   bool
	ingestWorkers int
	ingestRate    float64
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the configured documentation corpus",
	Long: `Run the offline ingestion pipeline: load the corpus, chunk it into
passages, embed them and replace the source's entries in the vector
index. Re-running against an unchanged corpus is a no-op.

With --watch, docdex keeps running and re-ingests whenever corpus
files change.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when corpus files change")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 4, "concurrent embedding workers")
	ingestCmd.Flags().Float64Var(&ingestRate, "rate", 0, "embedding requests per second (0 = unlimited)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	loader, err := newLoader(cfg)
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := newIndex(cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	resolver, err := github.NewResolver()
	if err != nil {
		return err
	}

	ingester := services.NewIngestService(
		loader,
		chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		embedder,
		index,
		catalog.SourceStore(),
		catalog.DocumentStore(),
		catalog.RunStore(),
		services.WithVersionResolver(resolver),
		services.WithWorkers(ingestWorkers),
		services.WithRateLimit(ingestRate),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ingestOnce(ctx, cmd, ingester); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}
	return watchAndIngest(ctx, cmd, cfg, ingester)
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, ingester *services.IngestService) error {
	stats, err := ingester.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printStats(cmd, stats)
	return nil
}

// watchAndIngest blocks, re-running ingestion after each settled burst
// of corpus changes. A failed re-ingest is logged, not fatal; the
// previous index state remains intact.
func watchAndIngest(ctx context.Context, cmd *cobra.Command, cfg config.Config, ingester *services.IngestService) error {
	w, err := watcher.New(cfg.Corpus.Path)
	if err != nil {
		return fmt.Errorf("watching corpus: %w", err)
	}
	defer w.Close()

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl-C to stop)\n", cfg.Corpus.Path)

	changes := w.Changes(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := ingestOnce(ctx, cmd, ingester); err != nil {
				logger.Error("re-ingest failed: %v", err)
			}
		}
	}
}

func printStats(cmd *cobra.Command, stats *domain.IngestStats) {
	if stats.Passages == 0 && stats.Skipped > 0 {
		cmd.Printf("Corpus unchanged (%d documents), nothing to do.\n", stats.Skipped)
		return
	}
	cmd.Printf("Ingested %d documents as %d passages in %s\n",
		stats.Documents, stats.Passages, stats.Duration.Round(time.Millisecond))
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/adapters/driving/mcp"
	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/ports/driven"
	"github.com/docdex-io/docdex/internal/core/services"
	"github.com/docdex-io/docdex/internal/logger"
)

// startupCheckTimeout bounds the embedding backend reachability probe.
const startupCheckTimeout = 10 * time.Second

var (
	serveTransport string
	serveHost      string
	servePort      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the documentation server",
	Long: `Start the MCP server exposing the indexed documentation.

By default the server communicates over stdio and can be registered
directly with MCP-compatible LLM clients. SSE and streamable HTTP
transports bind a network address instead.

Examples:
  # Stdio mode (default, for desktop LLM clients)
  docdex serve

  # Network modes
  docdex serve --transport sse --port 8000
  docdex serve --transport streamable-http --port 8000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", "", "transport: stdio, sse or streamable-http (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind host for network transports")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "bind port for network transports")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveTransport != "" {
		cfg.Server.Transport = serveTransport
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := startupChecks(ctx, embedder, catalog.RunStore()); err != nil {
		return err
	}

	searchService := services.NewSearchService(index, embedder,
		services.WithTimeout(cfg.Index.Timeout()))
	sourceService := services.NewSourceService(catalog.SourceStore(), catalog.DocumentStore())

	server, err := mcp.NewServer(&mcp.Ports{
		Search:          searchService,
		Source:          sourceService,
		DefaultLimit:    cfg.Search.Limit,
		DefaultMinScore: cfg.Search.MinScore,
	})
	if err != nil {
		return err
	}

	switch cfg.Server.Transport {
	case "sse":
		fmt.Fprintf(cmd.ErrOrStderr(), "docdex serving SSE on http://%s\n", cfg.Server.Addr())
		return server.RunSSE(ctx, cfg.Server.Addr())
	case "streamable-http":
		fmt.Fprintf(cmd.ErrOrStderr(), "docdex serving HTTP on http://%s\n", cfg.Server.Addr())
		return server.RunHTTP(ctx, cfg.Server.Addr())
	default:
		return server.Run(ctx)
	}
}

// startupChecks refuses to serve when the embedding backend is down or
// the index was built with a different encoder than the active one.
// Failing here beats silently returning garbage similarity scores.
func startupChecks(ctx context.Context, embedder driven.EmbeddingService, runs driven.RunStore) error {
	checkCtx, cancel := context.WithTimeout(ctx, startupCheckTimeout)
	defer cancel()

	if err := embedder.Ping(checkCtx); err != nil {
		return fmt.Errorf("embedding backend check failed: %w", err)
	}
	logger.Debug("embedding backend reachable, model %s (%d dimensions)",
		embedder.ModelName(), embedder.Dimensions())

	run, err := runs.LatestRun(checkCtx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("no ingestion run recorded; the index may be empty")
			return nil
		}
		return fmt.Errorf("reading catalog: %w", err)
	}

	if run.Model != embedder.ModelName() || run.Dimensions != embedder.Dimensions() {
		return fmt.Errorf("%w: index was built with %s (%d dimensions), encoder is %s (%d dimensions); re-ingest the corpus",
			domain.ErrIndexInconsistent, run.Model, run.Dimensions,
			embedder.ModelName(), embedder.Dimensions())
	}

	return nil
}

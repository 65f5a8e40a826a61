package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/core/domain"
	"github.com/docdex-io/docdex/internal/core/services"
)

var (
	searchLimit    int
	searchSources  []string
	searchSection  string
	searchMinScore float64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed documentation",
	Long: `Search the indexed documentation from the command line, using the
same query path the MCP server serves to LLM clients.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().StringSliceVarP(&searchSources, "source", "s", nil, "restrict to these source IDs")
	searchCmd.Flags().StringVar(&searchSection, "section", "", "restrict to passages under this heading")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum similarity score (0-1)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

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

	limit := searchLimit
	if limit == 0 {
		limit = cfg.Search.Limit
	}
	minScore := searchMinScore
	if minScore == 0 {
		minScore = cfg.Search.MinScore
	}

	searchService := services.NewSearchService(index, embedder,
		services.WithTimeout(cfg.Index.Timeout()))

	resp, err := searchService.Search(cmd.Context(), query, domain.SearchOptions{
		Limit:     limit,
		SourceIDs: searchSources,
		Section:   searchSection,
		MinScore:  minScore,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, resp)
	}
	return outputSearchText(cmd, resp)
}

func outputSearchJSON(cmd *cobra.Command, resp *domain.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, resp *domain.SearchResponse) error {
	if len(resp.Results) == 0 {
		if resp.BelowMinScore {
			cmd.Println("No results above the similarity threshold.")
		} else {
			cmd.Println("No results found.")
		}
		return nil
	}

	for i := range resp.Results {
		r := &resp.Results[i]
		cmd.Printf("[%d] %s (%.2f)\n", i+1, r.SourceTitle, r.Score)
		if section := r.Passage.SectionPath(); section != "" {
			cmd.Printf("    Section: %s\n", section)
		}
		cmd.Printf("    %s\n", r.Passage.Content)
		if r.Context != "" {
			cmd.Printf("    Context: %s\n", r.Context)
		}
		cmd.Println()
	}

	if resp.Degraded() {
		cmd.Printf("Note: %d stale index entries were excluded; re-ingest the corpus.\n", resp.Excluded)
	}
	return nil
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/docdex-io/docdex/internal/core/services"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List indexed documentation sources",
	RunE:  runSources,
}

var sourcesDocsCmd = &cobra.Command{
	Use:   "docs [source-id]",
	Short: "List the documents of a source",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesDocs,
}

func init() {
	sourcesCmd.AddCommand(sourcesDocsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	svc := services.NewSourceService(catalog.SourceStore(), catalog.DocumentStore())
	sources, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		cmd.Println("No sources indexed yet. Run 'docdex ingest' first.")
		return nil
	}

	for _, src := range sources {
		version := src.Version
		if version == "" {
			version = "unversioned"
		}
		cmd.Printf("%s\t%s\t%s\n", src.ID, src.DisplayTitle(), version)
	}
	return nil
}

func runSourcesDocs(cmd *cobra.Command, args []string) error {
	catalog, err := newCatalog(cfg)
	if err != nil {
		return err
	}
	defer catalog.Close()

	svc := services.NewSourceService(catalog.SourceStore(), catalog.DocumentStore())
	docs, err := svc.ListDocuments(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	for _, doc := range docs {
		cmd.Printf("%s\t%s\n", doc.ID, doc.Path)
	}
	return nil
}

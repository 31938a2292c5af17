package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity to the configured services",
	Long: `Pings the primary and fallback embedding models and the
generation model, and reports what has been ingested so far.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cmd.Println(titleStyle.Render("Services"))
	printPing(cmd, "embedding/primary ("+primaryEmbedding.ModelName()+")", primaryEmbedding.Ping(ctx))
	printPing(cmd, "embedding/fallback ("+fallbackEmbedding.ModelName()+")", fallbackEmbedding.Ping(ctx))
	printPing(cmd, "generation ("+llmService.ModelName()+")", llmService.Ping(ctx))

	cmd.Println()
	cmd.Println(titleStyle.Render("Content"))

	docs, err := documentStore.ListDocuments(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("  %d documents in %s\n", len(docs), documentStore.Path())

	model, err := embedderClient.ActiveModel(ctx)
	if err != nil {
		cmd.Println(warnStyle.Render("  no embedding model reachable, index stats unavailable"))
		return nil
	}
	index, err := indexProvider.Collection(ctx, model)
	if err != nil {
		return err
	}
	count, err := index.Count(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("  %d vectors in collection %s\n", count, model.CollectionName(cfg.Index.CollectionBase))
	return nil
}

func printPing(cmd *cobra.Command, name string, err error) {
	if err != nil {
		cmd.Printf("  %s %s: %v\n", errorStyle.Render("✗"), name, err)
		return
	}
	cmd.Printf("  %s %s\n", successStyle.Render("✓"), name)
}

// Package cli implements the eduplan command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configfile "github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/config/file"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/embedding/failover"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/embedding/nvidia"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/embedding/ollama"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/llm/openai"
	planfile "github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/planstore/file"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/storage/sqlite"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/vector/chromem"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/vector/memory"
	"github.com/eduplan-labs/eduplan-cli/internal/adapters/driven/vector/qdrant"
	"github.com/eduplan-labs/eduplan-cli/internal/chunker"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driven"
	"github.com/eduplan-labs/eduplan-cli/internal/core/ports/driving"
	"github.com/eduplan-labs/eduplan-cli/internal/core/services"
	"github.com/eduplan-labs/eduplan-cli/internal/loader"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose bool
	flagConfig  string
)

// Wired services, populated by setup before any subcommand runs.
var (
	cfg              configfile.Config
	ingestService    driving.IngestService
	retrievalService driving.RetrievalService
	plannerService   driving.PlannerService

	// Kept for the check command and teardown.
	primaryEmbedding  driven.EmbeddingService
	fallbackEmbedding driven.EmbeddingService
	llmService        driven.LLMService
	embedderClient    driven.Embedder
	indexProvider     driven.IndexProvider
	documentStore     *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "eduplan",
	Short: "Generate lesson plans from ingested textbook content",
	Long: `eduplan ingests preprocessed textbook content, indexes it for
semantic retrieval, and generates structured lesson plans grounded in
the retrieved material.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup()
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		return teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.eduplan/config.toml)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// setup loads configuration and wires the service graph.
func setup() error {
	path := flagConfig
	if path == "" {
		var err error
		if path, err = configfile.DefaultPath(); err != nil {
			return err
		}
	}

	var err error
	cfg, err = configfile.Load(path)
	if err != nil {
		return err
	}

	primaryEmbedding = nvidia.NewEmbeddingService(nvidia.Config{
		APIKey:     cfg.Embedding.Primary.APIKey(),
		BaseURL:    cfg.Embedding.Primary.BaseURL,
		Model:      cfg.Embedding.Primary.Model,
		Dimensions: cfg.Embedding.Primary.Dimensions,
	})
	fallbackEmbedding = ollama.NewEmbeddingService(ollama.Config{
		BaseURL:    cfg.Embedding.Fallback.BaseURL,
		Model:      cfg.Embedding.Fallback.Model,
		Dimensions: cfg.Embedding.Fallback.Dimensions,
	})
	embedderClient = failover.New(primaryEmbedding, fallbackEmbedding, failover.Config{
		BatchSize:         cfg.Embedding.BatchSize,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})

	indexProvider, err = newIndexProvider(cfg.Index)
	if err != nil {
		return err
	}

	documentStore, err = sqlite.NewStore(cfg.Output.DataDir)
	if err != nil {
		return err
	}

	llmService, err = openai.NewLLMService(openai.Config{
		APIKey:  cfg.Generation.APIKey(),
		BaseURL: cfg.Generation.BaseURL,
		Model:   cfg.Generation.Model,
	})
	if err != nil {
		return err
	}

	chk := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithMinChunk(cfg.Chunking.MinChunk),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestService = services.NewIngestService(
		loader.New(), chk, embedderClient, indexProvider, documentStore)
	retrievalService = services.NewRetrievalService(
		embedderClient, indexProvider, documentStore)

	planner := services.NewPlannerService(
		retrievalService, llmService, planfile.NewPlanStore(cfg.Output.PlansDir))
	planner.SetMaxContextLength(cfg.Retrieval.MaxContextLength)
	planner.SetMaxTokens(cfg.Generation.MaxTokens)
	plannerService = planner

	return nil
}

// newIndexProvider selects the vector index backend.
func newIndexProvider(idx configfile.IndexConfig) (driven.IndexProvider, error) {
	switch idx.Backend {
	case "chromem", "":
		path := idx.Path
		if path == "" {
			path = "eduplan.chromem"
		}
		return chromem.NewProvider(path, idx.CollectionBase)
	case "qdrant":
		return qdrant.NewProvider(qdrant.Config{
			URL:            idx.URL,
			CollectionBase: idx.CollectionBase,
		}), nil
	case "memory":
		return memory.NewProvider(idx.CollectionBase), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", idx.Backend)
	}
}

// teardown releases wired resources.
func teardown() error {
	var firstErr error
	closeAll := []func() error{}
	if embedderClient != nil {
		closeAll = append(closeAll, embedderClient.Close)
	}
	if indexProvider != nil {
		closeAll = append(closeAll, indexProvider.Close)
	}
	if documentStore != nil {
		closeAll = append(closeAll, documentStore.Close)
	}
	if llmService != nil {
		closeAll = append(closeAll, llmService.Close)
	}
	for _, close := range closeAll {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

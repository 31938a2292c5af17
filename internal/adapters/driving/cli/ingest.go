package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/eduplan-labs/eduplan-cli/internal/core/domain"
	"github.com/eduplan-labs/eduplan-cli/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest preprocessed textbook content",
	Long: `Ingests one JSON source file or every JSON file in a directory:
chunks the text, embeds the chunks and upserts them into the vector
index. Re-ingesting a file supersedes its prior content.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory and re-ingest on change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	ctx := cmd.Context()
	if !info.IsDir() {
		if ingestWatch {
			return errors.New("--watch requires a directory")
		}
		report, err := ingestService.IngestFile(ctx, path)
		printReport(cmd, report)
		return err
	}

	reports, err := ingestService.IngestDir(ctx, path)
	if err != nil {
		return err
	}
	failed := 0
	for i := range reports {
		printReport(cmd, &reports[i])
		if reports[i].Err != nil {
			failed++
		}
	}
	cmd.Printf("\n%d ingested, %d failed\n", len(reports)-failed, failed)

	if ingestWatch {
		return watchDir(ctx, cmd, path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(reports))
	}
	return nil
}

// watchDir re-ingests JSON files as they appear or change, until
// interrupted.
func watchDir(ctx context.Context, cmd *cobra.Command, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s (ctrl-c to stop)\n", dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			report, err := ingestService.IngestFile(ctx, event.Name)
			if err != nil {
				logger.Warn("Re-ingest failed for %s: %v", event.Name, err)
			}
			printReport(cmd, report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	if report == nil {
		return
	}
	if report.Err != nil {
		cmd.Printf("%s %s: %v\n", errorStyle.Render("✗"), report.Path, report.Err)
		return
	}
	cmd.Printf("%s %s: %d chunks (%s)\n",
		successStyle.Render("✓"), report.Path, report.Chunks, report.Model.Name)
}

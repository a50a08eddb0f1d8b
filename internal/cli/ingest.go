package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/skipai/podrag/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	ingestReplace  bool
	ingestEpisodes []string
	ingestYes      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index podcast transcripts into the vector store",
	Long: `Index podcast transcripts into the vector store.

Reads every .txt transcript from the transcripts directory, looks up its
episode metadata, and writes embedded chunks to the store. Episodes that
are already indexed are skipped unless --replace is given.

Examples:
  podrag ingest
  podrag ingest --replace --yes
  podrag ingest --episodes ep001,ep002`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "re-ingest episodes that are already indexed")
	ingestCmd.Flags().StringSliceVar(&ingestEpisodes, "episodes", nil, "restrict to specific episode ids")
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "skip confirmation")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Printf("Transcripts:  %s\n", cfg.TranscriptsDir)
	fmt.Printf("Metadata:     %s\n", cfg.MetadataPath)
	fmt.Printf("Store:        %s\n", cfg.StoreBackend)
	fmt.Printf("Embed model:  %s (%d dims)\n", cfg.EmbedModel, cfg.EmbedDimension)
	fmt.Printf("Chunking:     %d words, %d overlap\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Printf("Replace:      %v\n\n", ingestReplace)

	if ingestReplace && !ingestYes {
		fmt.Print("Replace re-embeds already indexed episodes. Continue? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	svc, err := getIngestService()
	if err != nil {
		return err
	}

	opts := service.BatchOptions{
		Replace:    ingestReplace,
		EpisodeIDs: ingestEpisodes,
	}

	var result service.BatchResult
	if term.IsTerminal(int(os.Stdout.Fd())) {
		result, err = runIngestWithProgress(ctx, svc, opts)
	} else {
		opts.Progress = func(p service.BatchProgress) {
			switch p.Status {
			case "ingested":
				fmt.Printf("[%d/%d] %s: %d chunks\n", p.Index, p.Total, p.EpisodeID, p.Chunks)
			case "skipped":
				fmt.Printf("[%d/%d] %s: already indexed\n", p.Index, p.Total, p.EpisodeID)
			case "no-metadata":
				fmt.Printf("[%d/%d] %s: no metadata, skipped\n", p.Index, p.Total, p.EpisodeID)
			case "failed":
				fmt.Printf("[%d/%d] %s: failed: %v\n", p.Index, p.Total, p.EpisodeID, p.Err)
			}
		}
		result, err = svc.ProcessAllEpisodes(ctx, cfg.TranscriptsDir, cfg.MetadataPath, opts)
	}
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	printBatchResult(result)
	return nil
}

func printBatchResult(result service.BatchResult) {
	fmt.Println()
	fmt.Printf("  Episodes ingested:  %d\n", result.Processed)
	fmt.Printf("  Episodes skipped:   %d\n", result.Skipped)
	if result.MissingMetadata > 0 {
		fmt.Printf("  Missing metadata:   %d\n", result.MissingMetadata)
	}
	if result.Failed > 0 {
		fmt.Printf("  Failed:             %d\n", result.Failed)
	}
	fmt.Printf("  Chunks written:     %d\n", result.ChunksWritten)
	fmt.Printf("  Chunks in store:    %d\n", result.TotalChunksInStore)
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "  • %s\n", e)
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/client"
	"github.com/spf13/cobra"
)

var statsServer string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the vector store currently holds",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServer, "server", "", "query a running podrag server instead of the store")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var stats catalog.Stats
	if statsServer != "" {
		resp, err := client.New(statsServer).Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		stats = resp.CollectionStats
	} else {
		var err error
		stats, err = cat.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
	}

	fmt.Printf("Total chunks:    %d\n", stats.TotalChunks)
	fmt.Printf("Unique episodes: %d\n", stats.UniqueEpisodes)
	if len(stats.EpisodeIDs) > 0 {
		fmt.Println("\nEpisodes:")
		for _, id := range stats.EpisodeIDs {
			fmt.Printf("  - %s\n", id)
		}
	}
	return nil
}

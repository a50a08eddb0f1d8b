// Package catalog answers questions about what the vector store already
// holds: which episodes are indexed, which chunk ids belong to an
// episode, and aggregate stats for the debug surface.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/skipai/podrag/internal/store"
)

// Catalog derives episode-level views from the chunk store.
type Catalog struct {
	store  store.Store
	logger *slog.Logger
}

// Stats summarizes the indexed corpus.
type Stats struct {
	TotalChunks    int      `json:"total_chunks"`
	UniqueEpisodes int      `json:"unique_episodes"`
	EpisodeIDs     []string `json:"episode_ids"`
}

// New creates a catalog over the given store.
func New(s store.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{store: s, logger: logger}
}

// ExistingEpisodeIDs returns the set of episode ids that have at least
// one chunk in the store. Chunks with a blank episode id are skipped
// with a warning; they cannot be attributed to an episode.
func (c *Catalog) ExistingEpisodeIDs(ctx context.Context) (map[string]bool, error) {
	chunks, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}

	ids := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.Metadata.EpisodeID == "" {
			c.logger.Warn("chunk has no episode id", "chunk_id", chunk.ChunkID)
			continue
		}
		ids[chunk.Metadata.EpisodeID] = true
	}
	return ids, nil
}

// ChunkIDsForEpisode returns the chunk ids currently stored for one
// episode, sorted for deterministic deletes.
func (c *Catalog) ChunkIDsForEpisode(ctx context.Context, episodeID string) ([]string, error) {
	chunks, err := c.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks for %s: %w", episodeID, err)
	}

	var ids []string
	for _, chunk := range chunks {
		if chunk.Metadata.EpisodeID == episodeID {
			ids = append(ids, chunk.ChunkID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Stats returns chunk and episode counts plus the sorted episode id list.
func (c *Catalog) Stats(ctx context.Context) (Stats, error) {
	chunks, err := c.store.GetAll(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("collect stats: %w", err)
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		if chunk.Metadata.EpisodeID != "" {
			seen[chunk.Metadata.EpisodeID] = true
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return Stats{
		TotalChunks:    len(chunks),
		UniqueEpisodes: len(ids),
		EpisodeIDs:     ids,
	}, nil
}

// Package service implements the ingestion and answering pipelines on
// top of the chunker, embedder, and vector store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/chunker"
	"github.com/skipai/podrag/internal/metrics"
	"github.com/skipai/podrag/internal/models"
	"github.com/skipai/podrag/internal/store"
)

// Embedder turns text into vectors. Satisfied by llm.Embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates an answer from a system and user prompt.
// Satisfied by llm.Model.
type Completer interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// IngestService chunks, embeds, and stores episode transcripts.
type IngestService struct {
	store    store.Store
	catalog  *catalog.Catalog
	embedder Embedder
	chunkCfg chunker.Config
	logger   *slog.Logger
	metrics  *metrics.Collector

	// episodeLocks serializes ingestion per episode id so concurrent
	// replaces of the same episode cannot interleave.
	episodeLocks sync.Map
}

// NewIngestService creates a new ingest service.
func NewIngestService(s store.Store, cat *catalog.Catalog, embedder Embedder, chunkCfg chunker.Config, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		store:    s,
		catalog:  cat,
		embedder: embedder,
		chunkCfg: chunkCfg,
		logger:   logger,
	}
}

// SetMetrics attaches a runtime statistics collector. A nil collector
// disables recording.
func (s *IngestService) SetMetrics(c *metrics.Collector) {
	s.metrics = c
}

// EpisodeResult summarizes the ingestion of one episode.
type EpisodeResult struct {
	EpisodeID string
	Chunks    int
	Skipped   bool
}

// BatchOptions configures a directory-wide ingestion run.
type BatchOptions struct {
	// Replace re-ingests episodes that are already indexed.
	Replace bool
	// EpisodeIDs restricts the run to a subset. Empty means all.
	EpisodeIDs []string
	// Progress, if set, is called after each episode.
	Progress func(BatchProgress)
}

// BatchProgress reports one episode's outcome during a batch run.
type BatchProgress struct {
	EpisodeID string
	Index     int
	Total     int
	Status    string // "ingested", "skipped", "no-metadata", "failed"
	Chunks    int
	Err       error
}

// BatchResult summarizes a directory-wide ingestion run.
type BatchResult struct {
	Processed          int
	Skipped            int
	MissingMetadata    int
	Failed             int
	ChunksWritten      int
	TotalChunksInStore int
	Errors             []string
}

// episodeContent builds the text that gets chunked: a metadata header
// followed by the raw transcript.
func episodeContent(ep models.Episode, transcript string) string {
	return fmt.Sprintf("Episode Title: %s\nDescription: %s\nTranscript: %s",
		ep.Title, ep.Description, transcript)
}

func (s *IngestService) lockEpisode(episodeID string) *sync.Mutex {
	mu, _ := s.episodeLocks.LoadOrStore(episodeID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ProcessEpisode ingests one episode transcript. If the episode is
// already indexed it is skipped unless replace is set. A replace stages
// every embedding before touching the store, then upserts the new chunk
// set in index order and deletes only the ids the new set no longer
// covers, so queries never observe an episode with zero chunks.
func (s *IngestService) ProcessEpisode(ctx context.Context, ep models.Episode, transcript string, replace bool) (EpisodeResult, error) {
	mu := s.lockEpisode(ep.ID)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	defer func() { s.metrics.RecordTiming(metrics.OpEpisodeIngest, time.Since(start)) }()

	existing, err := s.catalog.ChunkIDsForEpisode(ctx, ep.ID)
	if err != nil {
		return EpisodeResult{EpisodeID: ep.ID}, err
	}
	if len(existing) > 0 && !replace {
		s.logger.Info("episode already indexed, skipping", "episode_id", ep.ID, "chunks", len(existing))
		return EpisodeResult{EpisodeID: ep.ID, Chunks: len(existing), Skipped: true}, nil
	}

	chunks, err := chunker.Split(episodeContent(ep, transcript), s.chunkCfg)
	if err != nil {
		return EpisodeResult{EpisodeID: ep.ID}, fmt.Errorf("chunk episode %s: %w", ep.ID, err)
	}
	if len(chunks) == 0 {
		s.logger.Warn("episode produced no chunks", "episode_id", ep.ID)
		return EpisodeResult{EpisodeID: ep.ID}, nil
	}

	// Stage all embeddings first. A failure here leaves the store
	// untouched, including the previously indexed chunk set.
	embeddings, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return EpisodeResult{EpisodeID: ep.ID}, fmt.Errorf("embed episode %s: %w", ep.ID, err)
	}

	preview := models.PreviewDescription(ep.Description)
	for i, text := range chunks {
		meta := models.ChunkMetadata{
			EpisodeID:          ep.ID,
			Title:              ep.Title,
			URL:                ep.URL,
			ChunkIndex:         i,
			TotalChunks:        len(chunks),
			DescriptionPreview: preview,
		}
		if err := s.store.Upsert(ctx, models.ChunkID(ep.ID, i), embeddings[i], text, meta); err != nil {
			return EpisodeResult{EpisodeID: ep.ID}, fmt.Errorf("store chunk %d of episode %s: %w", i, ep.ID, err)
		}
	}

	// Deterministic ids mean the new set overwrote indexes 0..n-1; only
	// ids beyond the new set are stale.
	newIDs := make(map[string]bool, len(chunks))
	for i := range chunks {
		newIDs[models.ChunkID(ep.ID, i)] = true
	}
	var stale []string
	for _, id := range existing {
		if !newIDs[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := s.store.Delete(ctx, stale); err != nil {
			return EpisodeResult{EpisodeID: ep.ID}, fmt.Errorf("delete stale chunks of episode %s: %w", ep.ID, err)
		}
	}

	after, err := s.catalog.ChunkIDsForEpisode(ctx, ep.ID)
	if err != nil {
		return EpisodeResult{EpisodeID: ep.ID}, err
	}
	if len(after) != len(chunks) {
		return EpisodeResult{EpisodeID: ep.ID}, fmt.Errorf("%w: episode %s has %d chunks, want %d",
			ErrPartialReplace, ep.ID, len(after), len(chunks))
	}

	s.logger.Info("episode ingested", "episode_id", ep.ID, "chunks", len(chunks), "replaced", len(existing) > 0)
	return EpisodeResult{EpisodeID: ep.ID, Chunks: len(chunks)}, nil
}

// ProcessAllEpisodes ingests every transcript in transcriptsDir. The
// episode id is the transcript filename without its .txt extension;
// transcripts without a metadata entry are skipped with a warning.
func (s *IngestService) ProcessAllEpisodes(ctx context.Context, transcriptsDir, metadataPath string, opts BatchOptions) (BatchResult, error) {
	index, err := models.LoadMetadataIndex(metadataPath)
	if err != nil {
		return BatchResult{}, fmt.Errorf("load metadata: %w", err)
	}

	entries, err := os.ReadDir(transcriptsDir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("read transcripts dir: %w", err)
	}

	var episodeIDs []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		episodeIDs = append(episodeIDs, strings.TrimSuffix(entry.Name(), ".txt"))
	}
	sort.Strings(episodeIDs)

	if len(opts.EpisodeIDs) > 0 {
		wanted := make(map[string]bool, len(opts.EpisodeIDs))
		for _, id := range opts.EpisodeIDs {
			wanted[id] = true
		}
		var subset []string
		for _, id := range episodeIDs {
			if wanted[id] {
				subset = append(subset, id)
			}
		}
		episodeIDs = subset
	}

	s.logger.Info("starting batch ingestion", "episodes", len(episodeIDs), "replace", opts.Replace)

	var result BatchResult
	for i, id := range episodeIDs {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		progress := BatchProgress{EpisodeID: id, Index: i + 1, Total: len(episodeIDs)}

		ep, ok := index[id]
		if !ok {
			s.logger.Warn("no metadata for transcript, skipping", "episode_id", id)
			result.MissingMetadata++
			progress.Status = "no-metadata"
			progress.Err = fmt.Errorf("%w: %s", ErrMetadataMissing, id)
			if opts.Progress != nil {
				opts.Progress(progress)
			}
			continue
		}

		transcript, err := os.ReadFile(filepath.Join(transcriptsDir, id+".txt"))
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			progress.Status = "failed"
			progress.Err = err
			if opts.Progress != nil {
				opts.Progress(progress)
			}
			continue
		}

		epResult, err := s.ProcessEpisode(ctx, ep, string(transcript), opts.Replace)
		switch {
		case err != nil:
			s.logger.Error("episode ingestion failed", "episode_id", id, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			progress.Status = "failed"
			progress.Err = err
		case epResult.Skipped:
			result.Skipped++
			progress.Status = "skipped"
			progress.Chunks = epResult.Chunks
		default:
			result.Processed++
			result.ChunksWritten += epResult.Chunks
			progress.Status = "ingested"
			progress.Chunks = epResult.Chunks
		}
		if opts.Progress != nil {
			opts.Progress(progress)
		}
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count chunks after batch", "error", err)
	} else {
		result.TotalChunksInStore = total
	}

	s.logger.Info("batch ingestion complete",
		"processed", result.Processed, "skipped", result.Skipped,
		"no_metadata", result.MissingMetadata, "failed", result.Failed,
		"total_chunks", result.TotalChunksInStore)
	return result, nil
}

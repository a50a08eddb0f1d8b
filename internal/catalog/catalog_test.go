package catalog

import (
	"context"
	"reflect"
	"testing"

	"github.com/skipai/podrag/internal/models"
	"github.com/skipai/podrag/internal/store"
)

func seed(t *testing.T, m *store.Memory, episodeID string, total int) {
	t.Helper()
	for i := 0; i < total; i++ {
		err := m.Upsert(context.Background(), models.ChunkID(episodeID, i), []float32{1, 0}, "text",
			models.ChunkMetadata{EpisodeID: episodeID, Title: "Episode " + episodeID, ChunkIndex: i, TotalChunks: total})
		if err != nil {
			t.Fatalf("seed upsert failed: %v", err)
		}
	}
}

func TestExistingEpisodeIDs(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "ep001", 2)
	seed(t, m, "ep002", 1)

	c := New(m, nil)
	ids, err := c.ExistingEpisodeIDs(context.Background())
	if err != nil {
		t.Fatalf("ExistingEpisodeIDs failed: %v", err)
	}

	want := map[string]bool{"ep001": true, "ep002": true}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ExistingEpisodeIDs = %v, want %v", ids, want)
	}
}

func TestExistingEpisodeIDs_SkipsBlankEpisodeID(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "ep001", 1)
	_ = m.Upsert(context.Background(), "orphan_chunk_0", []float32{1, 0}, "text", models.ChunkMetadata{})

	c := New(m, nil)
	ids, err := c.ExistingEpisodeIDs(context.Background())
	if err != nil {
		t.Fatalf("ExistingEpisodeIDs failed: %v", err)
	}
	if len(ids) != 1 || !ids["ep001"] {
		t.Errorf("ExistingEpisodeIDs = %v, want just ep001", ids)
	}
}

func TestChunkIDsForEpisode(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "ep001", 3)
	seed(t, m, "ep002", 1)

	c := New(m, nil)
	ids, err := c.ChunkIDsForEpisode(context.Background(), "ep001")
	if err != nil {
		t.Fatalf("ChunkIDsForEpisode failed: %v", err)
	}

	want := []string{"ep001_chunk_0", "ep001_chunk_1", "ep001_chunk_2"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ChunkIDsForEpisode = %v, want %v", ids, want)
	}
}

func TestChunkIDsForEpisode_Unknown(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "ep001", 1)

	c := New(m, nil)
	ids, err := c.ChunkIDsForEpisode(context.Background(), "ep999")
	if err != nil {
		t.Fatalf("ChunkIDsForEpisode failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ChunkIDsForEpisode = %v, want empty", ids)
	}
}

func TestStats(t *testing.T) {
	m := store.NewMemory()
	seed(t, m, "ep002", 2)
	seed(t, m, "ep001", 3)

	c := New(m, nil)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalChunks != 5 {
		t.Errorf("TotalChunks = %d, want 5", stats.TotalChunks)
	}
	if stats.UniqueEpisodes != 2 {
		t.Errorf("UniqueEpisodes = %d, want 2", stats.UniqueEpisodes)
	}
	if want := []string{"ep001", "ep002"}; !reflect.DeepEqual(stats.EpisodeIDs, want) {
		t.Errorf("EpisodeIDs = %v, want %v", stats.EpisodeIDs, want)
	}
}

func TestStats_Empty(t *testing.T) {
	c := New(store.NewMemory(), nil)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalChunks != 0 || stats.UniqueEpisodes != 0 || len(stats.EpisodeIDs) != 0 {
		t.Errorf("Stats = %+v, want zero values", stats)
	}
}

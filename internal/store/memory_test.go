package store

import (
	"context"
	"testing"

	"github.com/skipai/podrag/internal/models"
)

func testMeta(episodeID string, index, total int) models.ChunkMetadata {
	return models.ChunkMetadata{
		EpisodeID:   episodeID,
		Title:       "Episode " + episodeID,
		ChunkIndex:  index,
		TotalChunks: total,
	}
}

func TestMemory_UpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 3; i++ {
		if err := m.Upsert(ctx, "ep001_chunk_0", []float32{1, 0}, "text", testMeta("ep001", 0, 1)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	count, err := m.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1 after repeated upserts of the same id", count)
	}
}

func TestMemory_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Upsert(ctx, "ep001_chunk_0", []float32{1, 0}, "old", testMeta("ep001", 0, 2))
	_ = m.Upsert(ctx, "ep001_chunk_0", []float32{0, 1}, "new", testMeta("ep001", 0, 1))

	all, err := m.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("GetAll returned %d rows, want 1", len(all))
	}
	if all[0].Text != "new" {
		t.Errorf("Text = %q, want %q", all[0].Text, "new")
	}
	if all[0].Metadata.TotalChunks != 1 {
		t.Errorf("TotalChunks = %d, want 1", all[0].Metadata.TotalChunks)
	}
}

func TestMemory_DeleteMissingIsNoOp(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_ = m.Upsert(ctx, "ep001_chunk_0", []float32{1, 0}, "text", testMeta("ep001", 0, 1))

	if err := m.Delete(ctx, []string{"ep001_chunk_0", "does_not_exist"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, _ := m.Count(ctx)
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}
}

func TestMemory_QueryOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// Vectors at increasing angles from the query direction.
	_ = m.Upsert(ctx, "ep001_chunk_0", []float32{1, 0}, "closest", testMeta("ep001", 0, 1))
	_ = m.Upsert(ctx, "ep002_chunk_0", []float32{1, 1}, "middle", testMeta("ep002", 0, 1))
	_ = m.Upsert(ctx, "ep003_chunk_0", []float32{0, 1}, "farthest", testMeta("ep003", 0, 1))

	matches, err := m.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query returned %d matches, want 2", len(matches))
	}
	if matches[0].ChunkID != "ep001_chunk_0" {
		t.Errorf("matches[0] = %s, want ep001_chunk_0", matches[0].ChunkID)
	}
	if matches[1].ChunkID != "ep002_chunk_0" {
		t.Errorf("matches[1] = %s, want ep002_chunk_0", matches[1].ChunkID)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("distances not ascending: %f > %f", matches[0].Distance, matches[1].Distance)
	}
}

func TestMemory_QueryEmptyStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	matches, err := m.Query(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Query returned %d matches from an empty store, want 0", len(matches))
	}
}

func TestMemory_QueryCapsAtK(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, id := range []string{"a_chunk_0", "b_chunk_0", "c_chunk_0"} {
		_ = m.Upsert(ctx, id, []float32{1, 0}, "text", testMeta(id[:1], 0, 1))
	}

	matches, err := m.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("Query returned %d matches, want 2", len(matches))
	}
}

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 0}, b: []float32{1, 0}, want: 0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 1},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: 2},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineDistance(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineDistance = %f, want %f", got, tt.want)
			}
		})
	}
}

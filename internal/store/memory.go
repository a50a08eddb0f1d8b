package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/skipai/podrag/internal/models"
)

// Memory is a brute-force in-memory vector store. It backs local
// development without a database and serves as the test double for
// everything above the store boundary.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]memoryRow
}

type memoryRow struct {
	embedding []float32
	text      string
	meta      models.ChunkMetadata
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]memoryRow)}
}

// Upsert inserts or overwrites the row at chunkID.
func (m *Memory) Upsert(ctx context.Context, chunkID string, embedding []float32, text string, meta models.ChunkMetadata) error {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[chunkID] = memoryRow{embedding: vec, text: text, meta: meta}
	return nil
}

// GetAll returns every stored row. Order is stable (sorted by chunk id)
// so callers get deterministic scans.
func (m *Memory) GetAll(ctx context.Context) ([]models.StoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := make([]models.StoredChunk, 0, len(m.rows))
	for id, row := range m.rows {
		chunks = append(chunks, models.StoredChunk{ChunkID: id, Text: row.text, Metadata: row.meta})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkID < chunks[j].ChunkID })
	return chunks, nil
}

// Delete removes rows by id. Missing ids are a no-op.
func (m *Memory) Delete(ctx context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chunkIDs {
		delete(m.rows, id)
	}
	return nil
}

// Query returns the k nearest rows by cosine distance, closest first.
// Ties break on chunk id to keep results deterministic.
func (m *Memory) Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error) {
	if k <= 0 {
		return []models.Match{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]models.Match, 0, len(m.rows))
	for id, row := range m.rows {
		matches = append(matches, models.Match{
			StoredChunk: models.StoredChunk{ChunkID: id, Text: row.text, Metadata: row.meta},
			Distance:    cosineDistance(embedding, row.embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ChunkID < matches[j].ChunkID
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of stored rows.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows), nil
}

// cosineDistance returns 1 - cosine similarity; 0 means identical
// direction, 2 means opposite.
func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

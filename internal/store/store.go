// Package store provides the vector store boundary for chunk rows.
package store

import (
	"context"
	"errors"

	"github.com/skipai/podrag/internal/models"
)

// ErrUnavailable indicates the underlying index cannot be opened or reached.
var ErrUnavailable = errors.New("vector store unavailable")

// Store is the contract every vector store backend satisfies. The store is
// the sole source of truth for which episodes exist; episode membership is
// derived from chunk metadata, not tracked separately. Implementations own
// get-or-create semantics for their collection.
type Store interface {
	// Upsert inserts or overwrites the row at chunkID. Safe to call
	// repeatedly with the same id.
	Upsert(ctx context.Context, chunkID string, embedding []float32, text string, meta models.ChunkMetadata) error

	// GetAll returns every stored row. This is a full scan used for catalog
	// derivation and replace-by-episode deletion; callers must tolerate it
	// degrading as the store grows.
	GetAll(ctx context.Context) ([]models.StoredChunk, error)

	// Delete removes rows by id. Deleting a non-existent id is a no-op.
	Delete(ctx context.Context, chunkIDs []string) error

	// Query returns the k nearest rows to the embedding, ascending by
	// distance (closest first).
	Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}

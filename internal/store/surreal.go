package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skipai/podrag/internal/models"
	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// knnEF is the HNSW search effort parameter for KNN queries.
const knnEF = 40

// SurrealConfig holds SurrealDB connection configuration.
type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Surreal is the durable vector store backend, backed by a SurrealDB
// chunk table with an HNSW cosine index.
type Surreal struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    SurrealConfig
	logger logger.Logger
}

var _ Store = (*Surreal)(nil)

// NewSurreal connects to SurrealDB with an auto-reconnecting WebSocket.
func NewSurreal(ctx context.Context, cfg SurrealConfig, log *slog.Logger) (*Surreal, error) {
	var sdkLogger logger.Logger
	if log != nil {
		sdkLogger = logger.New(log.Handler())
	} else {
		sdkLogger = logger.New(slog.Default().Handler())
	}

	// surrealcbor handles SurrealDB custom CBOR tags
	codec := surrealcbor.New()

	// gorillaws requires the base URL without the /rpc suffix (it adds /rpc internally)
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			ws := gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			})
			return ws, nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: connect: %w", ErrUnavailable, err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: from connection: %w", ErrUnavailable, err)
	}

	if cfg.AuthLevel == "database" {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
	} else {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: signin: %w", ErrUnavailable, err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: use: %w", ErrUnavailable, err)
	}

	sdkLogger.Info("SurrealDB connection established")
	return &Surreal{conn: conn, db: db, cfg: cfg, logger: sdkLogger}, nil
}

// Close closes the SurrealDB connection.
func (s *Surreal) Close(ctx context.Context) error {
	s.logger.Info("closing SurrealDB connection")
	return s.conn.Close(ctx)
}

// InitSchema creates the chunk table and its indexes if they do not exist.
// dimension must match the embedding model's output dimension.
func (s *Surreal) InitSchema(ctx context.Context, dimension int) error {
	s.logger.Info("initializing chunk schema", "dimension", dimension)
	_, err := surrealdb.Query[any](ctx, s.db, fmt.Sprintf(schemaSQL, dimension), nil)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// chunkRow mirrors one chunk table row as selected by the queries below.
type chunkRow struct {
	ChunkID            string    `json:"chunk_id"`
	Text               string    `json:"text"`
	EpisodeID          string    `json:"episode_id"`
	Title              string    `json:"title"`
	URL                string    `json:"url"`
	ChunkIndex         int       `json:"chunk_index"`
	TotalChunks        int       `json:"total_chunks"`
	DescriptionPreview string    `json:"description_preview"`
	Distance           float64   `json:"distance"`
	Embedding          []float32 `json:"embedding,omitempty"`
}

func (r chunkRow) toStoredChunk() models.StoredChunk {
	return models.StoredChunk{
		ChunkID: r.ChunkID,
		Text:    r.Text,
		Metadata: models.ChunkMetadata{
			EpisodeID:          r.EpisodeID,
			Title:              r.Title,
			URL:                r.URL,
			ChunkIndex:         r.ChunkIndex,
			TotalChunks:        r.TotalChunks,
			DescriptionPreview: r.DescriptionPreview,
		},
	}
}

// Upsert inserts or overwrites the row at chunkID.
func (s *Surreal) Upsert(ctx context.Context, chunkID string, embedding []float32, text string, meta models.ChunkMetadata) error {
	_, err := surrealdb.Query[any](ctx, s.db, `
		UPSERT type::record("chunk", $id) SET
			episode_id = $episode_id,
			title = $title,
			url = $url,
			chunk_index = $chunk_index,
			total_chunks = $total_chunks,
			description_preview = $description_preview,
			text = $text,
			embedding = $embedding
	`, map[string]any{
		"id":                  chunkID,
		"episode_id":          meta.EpisodeID,
		"title":               meta.Title,
		"url":                 meta.URL,
		"chunk_index":         meta.ChunkIndex,
		"total_chunks":        meta.TotalChunks,
		"description_preview": meta.DescriptionPreview,
		"text":                text,
		"embedding":           embedding,
	})
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", chunkID, err)
	}
	return nil
}

// GetAll returns every stored chunk row without embeddings.
func (s *Surreal) GetAll(ctx context.Context) ([]models.StoredChunk, error) {
	results, err := surrealdb.Query[[]chunkRow](ctx, s.db, `
		SELECT record::id(id) AS chunk_id, text, episode_id, title, url,
		       chunk_index, total_chunks, description_preview
		FROM chunk
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("get all chunks: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.StoredChunk{}, nil
	}

	rows := (*results)[0].Result
	chunks := make([]models.StoredChunk, 0, len(rows))
	for _, row := range rows {
		chunks = append(chunks, row.toStoredChunk())
	}
	return chunks, nil
}

// Delete removes rows by id. Missing ids are silently ignored.
func (s *Surreal) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	_, err := surrealdb.Query[any](ctx, s.db, `
		DELETE chunk WHERE record::id(id) IN $ids
	`, map[string]any{"ids": chunkIDs})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks by cosine distance, closest first.
func (s *Surreal) Query(ctx context.Context, embedding []float32, k int) ([]models.Match, error) {
	if k <= 0 {
		return []models.Match{}, nil
	}

	// The KNN operator takes literal k/ef values, not parameters.
	sql := fmt.Sprintf(`
		SELECT record::id(id) AS chunk_id, text, episode_id, title, url,
		       chunk_index, total_chunks, description_preview,
		       vector::distance::knn() AS distance
		FROM chunk
		WHERE embedding <|%d,%d|> $emb
		ORDER BY distance ASC
	`, k, knnEF)

	results, err := surrealdb.Query[[]chunkRow](ctx, s.db, sql, map[string]any{"emb": embedding})
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Match{}, nil
	}

	rows := (*results)[0].Result
	matches := make([]models.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, models.Match{
			StoredChunk: row.toStoredChunk(),
			Distance:    row.Distance,
		})
	}
	return matches, nil
}

// Count returns the number of stored chunk rows.
func (s *Surreal) Count(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Total int `json:"total"`
	}](ctx, s.db, `SELECT count() AS total FROM chunk GROUP ALL`, nil)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Total, nil
}

// Package store integration tests run against a throwaway SurrealDB container.
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/skipai/podrag/internal/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDimension = 4

var testStore *Surreal
var testContainer testcontainers.Container

// TestMain starts one SurrealDB container for all integration tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = NewSurreal(ctx, SurrealConfig{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test store: %v", err)
	}

	if err := testStore.InitSchema(ctx, testDimension); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// wipe clears the chunk table between tests.
func wipe(t *testing.T) {
	t.Helper()
	all, err := testStore.GetAll(context.Background())
	if err != nil {
		t.Fatalf("wipe: GetAll failed: %v", err)
	}
	ids := make([]string, 0, len(all))
	for _, c := range all {
		ids = append(ids, c.ChunkID)
	}
	if err := testStore.Delete(context.Background(), ids); err != nil {
		t.Fatalf("wipe: Delete failed: %v", err)
	}
}

func vec(vals ...float32) []float32 {
	v := make([]float32, testDimension)
	copy(v, vals)
	return v
}

func TestSurreal_UpsertAndGetAll(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	meta := models.ChunkMetadata{
		EpisodeID:          "ep001",
		Title:              "Episode 1: Crafting a career framework",
		URL:                "https://example.com/ep001",
		ChunkIndex:         0,
		TotalChunks:        2,
		DescriptionPreview: "career advice",
	}
	if err := testStore.Upsert(ctx, "ep001_chunk_0", vec(1, 0, 0, 0), "chunk zero", meta); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := testStore.Upsert(ctx, "ep001_chunk_1", vec(0, 1, 0, 0), "chunk one", models.ChunkMetadata{
		EpisodeID: "ep001", Title: meta.Title, ChunkIndex: 1, TotalChunks: 2,
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	all, err := testStore.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetAll returned %d rows, want 2", len(all))
	}

	byID := map[string]models.StoredChunk{}
	for _, c := range all {
		byID[c.ChunkID] = c
	}
	first, ok := byID["ep001_chunk_0"]
	if !ok {
		t.Fatal("ep001_chunk_0 not found")
	}
	if first.Text != "chunk zero" {
		t.Errorf("Text = %q, want %q", first.Text, "chunk zero")
	}
	if first.Metadata != meta {
		t.Errorf("Metadata = %+v, want %+v", first.Metadata, meta)
	}
}

func TestSurreal_UpsertIdempotent(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	meta := models.ChunkMetadata{EpisodeID: "ep001", Title: "t", ChunkIndex: 0, TotalChunks: 1}
	for i := 0; i < 3; i++ {
		if err := testStore.Upsert(ctx, "ep001_chunk_0", vec(1, 0, 0, 0), "text", meta); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	count, err := testStore.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

func TestSurreal_DeleteMissingIsNoOp(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	meta := models.ChunkMetadata{EpisodeID: "ep001", Title: "t", ChunkIndex: 0, TotalChunks: 1}
	_ = testStore.Upsert(ctx, "ep001_chunk_0", vec(1, 0, 0, 0), "text", meta)

	if err := testStore.Delete(ctx, []string{"ep001_chunk_0", "never_existed"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, _ := testStore.Count(ctx)
	if count != 0 {
		t.Errorf("Count = %d after delete, want 0", count)
	}
}

func TestSurreal_QueryOrdering(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	_ = testStore.Upsert(ctx, "ep001_chunk_0", vec(1, 0, 0, 0), "closest",
		models.ChunkMetadata{EpisodeID: "ep001", Title: "a", ChunkIndex: 0, TotalChunks: 1})
	_ = testStore.Upsert(ctx, "ep002_chunk_0", vec(1, 1, 0, 0), "middle",
		models.ChunkMetadata{EpisodeID: "ep002", Title: "b", ChunkIndex: 0, TotalChunks: 1})
	_ = testStore.Upsert(ctx, "ep003_chunk_0", vec(0, 1, 0, 0), "farthest",
		models.ChunkMetadata{EpisodeID: "ep003", Title: "c", ChunkIndex: 0, TotalChunks: 1})

	matches, err := testStore.Query(ctx, vec(1, 0, 0, 0), 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Query returned %d matches, want 2", len(matches))
	}
	if matches[0].ChunkID != "ep001_chunk_0" {
		t.Errorf("matches[0] = %s, want ep001_chunk_0", matches[0].ChunkID)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("distances not ascending: %f > %f", matches[0].Distance, matches[1].Distance)
	}
}

func TestSurreal_QueryEmptyStore(t *testing.T) {
	wipe(t)

	matches, err := testStore.Query(context.Background(), vec(1, 0, 0, 0), 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Query returned %d matches from empty store, want 0", len(matches))
	}
}

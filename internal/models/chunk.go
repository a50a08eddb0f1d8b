package models

import "fmt"

// DescriptionPreviewLen caps the description copy stored on each chunk,
// measured in characters. The full description lives only in the
// metadata index.
const DescriptionPreviewLen = 200

// ChunkID returns the deterministic store key for a chunk:
// "{episode_id}_chunk_{index}". Indexes are 0-based and contiguous
// within an episode, which is what makes re-ingestion idempotent.
func ChunkID(episodeID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", episodeID, index)
}

// ChunkMetadata is the metadata stored alongside each chunk row.
// EpisodeID, Title, ChunkIndex and TotalChunks are always present;
// the rest may be empty.
type ChunkMetadata struct {
	EpisodeID          string `json:"episode_id"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	ChunkIndex         int    `json:"chunk_index"`
	TotalChunks        int    `json:"total_chunks"`
	DescriptionPreview string `json:"description_preview"`
}

// StoredChunk is one row as returned by store scans.
type StoredChunk struct {
	ChunkID  string
	Text     string
	Metadata ChunkMetadata
}

// Match is a stored chunk paired with its similarity distance.
// Smaller distance means closer to the query.
type Match struct {
	StoredChunk
	Distance float64
}

// Source is a citation entry returned alongside an answer.
type Source struct {
	EpisodeID string `json:"episode_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
}

// PreviewDescription truncates a description to DescriptionPreviewLen
// characters. Truncation counts runes, not bytes, so a multibyte
// character is never split into invalid UTF-8.
func PreviewDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= DescriptionPreviewLen {
		return description
	}
	return string(runes[:DescriptionPreviewLen])
}

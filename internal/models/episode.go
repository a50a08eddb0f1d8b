// Package models defines the core domain types shared across the
// ingestion and retrieval pipelines.
package models

import (
	"encoding/json"
	"fmt"
	"os"
)

// Episode is one podcast episode as described by the metadata index.
// The ID is derived from the transcript filename stem and is the only
// required field; title, description and url default to empty.
type Episode struct {
	ID          string `json:"episode_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// LoadMetadataIndex reads a JSON object keyed by episode id with
// {title, description, url} entries and returns it as a lookup map.
// Each returned Episode has its ID filled in from the map key.
func LoadMetadataIndex(path string) (map[string]Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata index: %w", err)
	}

	var index map[string]Episode
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse metadata index %s: %w", path, err)
	}

	for id, ep := range index {
		ep.ID = id
		index[id] = ep
	}
	return index, nil
}

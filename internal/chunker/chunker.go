// Package chunker splits transcript text into overlapping word windows.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig indicates a chunk window whose stride cannot advance.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// Config defines the chunk window, measured in whitespace-delimited words.
type Config struct {
	// Size is the maximum number of words per chunk.
	Size int
	// Overlap is the number of words shared between adjacent chunks.
	Overlap int
}

// DefaultConfig returns the standard 1000-word window with 100-word overlap.
func DefaultConfig() Config {
	return Config{Size: 1000, Overlap: 100}
}

// Validate checks that the window produces a positive stride.
// Overlap >= Size would loop forever, so it is rejected up front.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidConfig, c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap %d must not be negative", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("%w: overlap %d must be smaller than size %d", ErrInvalidConfig, c.Overlap, c.Size)
	}
	return nil
}

// Split cuts text into chunks of up to cfg.Size words, starting a new chunk
// every cfg.Size-cfg.Overlap words until the input is exhausted. The last
// chunk may be shorter than cfg.Size. Empty input yields no chunks and no
// error. Split is pure: the same input always produces the same chunks,
// which is what makes re-ingestion idempotent.
func Split(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := cfg.Size - cfg.Overlap
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + cfg.Size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks, nil
}

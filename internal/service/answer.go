package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skipai/podrag/internal/metrics"
	"github.com/skipai/podrag/internal/models"
	"github.com/skipai/podrag/internal/store"
)

// FallbackAnswer is returned when retrieval finds nothing relevant.
const FallbackAnswer = "I couldn't find any relevant information in the podcast transcripts."

const answerSystemPrompt = "You are a helpful assistant that answers questions about the Skip Podcast. " +
	"Always cite the specific episode title in your response, and provide detailed " +
	"answers based on the context provided."

// AnswerService runs the retrieval and answering pipeline: embed the
// question, fetch nearest chunks, and synthesize an answer with sources.
type AnswerService struct {
	store     store.Store
	embedder  Embedder
	completer Completer
	topK      int
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// Answer is the result of one question: the generated text plus the
// episodes it drew from, deduplicated in first-seen order.
type Answer struct {
	Text    string
	Sources []models.Source
}

// NewAnswerService creates an answer service. topK defaults to 2 and
// timeout to 30 seconds when non-positive.
func NewAnswerService(s store.Store, embedder Embedder, completer Completer, topK int, timeout time.Duration, logger *slog.Logger) *AnswerService {
	if topK <= 0 {
		topK = 2
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		store:     s,
		embedder:  embedder,
		completer: completer,
		topK:      topK,
		timeout:   timeout,
		logger:    logger,
	}
}

// SetMetrics attaches a runtime statistics collector. A nil collector
// disables recording.
func (s *AnswerService) SetMetrics(c *metrics.Collector) {
	s.metrics = c
}

// Ask answers a question from the indexed transcripts. With no matches
// it returns the fallback answer and no sources, not an error.
func (s *AnswerService) Ask(ctx context.Context, question string) (Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Info("answering question", "question_len", len(question), "top_k", s.topK)

	start := time.Now()
	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: embed question: %w", ErrAnswerGeneration, err)
	}
	s.metrics.RecordTiming(metrics.OpEmbedding, time.Since(start))

	start = time.Now()
	matches, err := s.store.Query(ctx, embedding, s.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: query store: %w", ErrAnswerGeneration, err)
	}
	s.metrics.RecordTiming(metrics.OpVectorQuery, time.Since(start))

	if len(matches) == 0 {
		s.logger.Info("no matching chunks found")
		return Answer{Text: FallbackAnswer, Sources: []models.Source{}}, nil
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	userPrompt := fmt.Sprintf("Context from podcast transcripts:\n%s\n\nQuestion: %s",
		strings.Join(texts, "\n"), question)

	start = time.Now()
	text, err := s.completer.GenerateWithSystem(ctx, answerSystemPrompt, userPrompt)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: generate: %w", ErrAnswerGeneration, err)
	}
	s.metrics.RecordTiming(metrics.OpCompletion, time.Since(start))

	sources := dedupeSources(matches)
	s.logger.Info("answer generated", "answer_len", len(text), "sources", len(sources))
	return Answer{Text: text, Sources: sources}, nil
}

// dedupeSources collapses matches to one source per episode, keeping
// first-seen (closest match) order.
func dedupeSources(matches []models.Match) []models.Source {
	seen := make(map[string]bool, len(matches))
	sources := make([]models.Source, 0, len(matches))
	for _, m := range matches {
		id := m.Metadata.EpisodeID
		if seen[id] {
			continue
		}
		seen[id] = true
		sources = append(sources, models.Source{
			EpisodeID: id,
			Title:     m.Metadata.Title,
			URL:       m.Metadata.URL,
		})
	}
	return sources
}

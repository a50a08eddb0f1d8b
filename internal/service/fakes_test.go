package service

import (
	"context"
	"errors"
	"hash/fnv"
)

// fakeEmbedder produces deterministic vectors derived from the text so
// identical chunks always embed identically. failAfter, when positive,
// fails every call once that many embeddings have been produced.
type fakeEmbedder struct {
	calls     int
	produced  int
	failAfter int
}

var errEmbedDown = errors.New("embedder down")

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.produced >= f.failAfter {
		return nil, errEmbedDown
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		sum := h.Sum32()
		vecs[i] = []float32{
			float32(sum%101) / 101,
			float32(sum%103) / 103,
			float32(sum%107) / 107,
		}
	}
	f.produced += len(texts)
	return vecs, nil
}

// fakeCompleter records prompts and returns a canned answer.
type fakeCompleter struct {
	lastSystem string
	lastUser   string
	answer     string
	err        error
}

func (f *fakeCompleter) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

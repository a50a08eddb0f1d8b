package service

import "errors"

var (
	// ErrMetadataMissing indicates a transcript has no entry in the
	// episode metadata index. The episode is skipped, not ingested with
	// blank metadata.
	ErrMetadataMissing = errors.New("episode metadata missing")

	// ErrAnswerGeneration indicates a step of the answering pipeline
	// failed: embedding the question, querying the store, or generating
	// the completion. The wrapped cause says which.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrPartialReplace indicates a replace left the store with a chunk
	// count that does not match the freshly written chunk set.
	ErrPartialReplace = errors.New("replace left inconsistent chunk count")
)

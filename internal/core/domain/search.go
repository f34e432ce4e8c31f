package domain

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

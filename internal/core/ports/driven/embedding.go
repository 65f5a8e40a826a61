package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// The same model must encode passages at ingest time and queries at
// serve time; callers validate compatibility via ModelName and
// Dimensions before touching the index.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, mxbai-embed-large)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1024, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the backend is reachable with a lightweight request.
	// Serving must not start when this fails.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Package embedder maps text to fixed-dimension vectors using a locally
// cached transformer model. The embedder is a long-lived
// object whose load cost is amortized across queries.
package embedder

import "context"

// Embedder is the embedding contract.
type Embedder interface {
	// Embed maps a single text to a fixed-length vector.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch maps multiple texts to vectors in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension returns the vector length produced by this embedder. It is
	// a property of the loaded model, not a package constant.
	Dimension() int
	// ModelName returns the configured model identity. The index records
	// only the embedding dimension, so the model name is not persisted
	// and not checked when the index is opened.
	ModelName() string
	// Close releases the underlying model resources.
	Close() error
}

// Config selects and tunes a model.
type Config struct {
	// Model is a registry name (see registry.go) or a filesystem path to a
	// directory containing model.onnx and tokenizer.json.
	Model string
	// Dimension overrides the registry/probe-detected dimension.
	Dimension int
	// MaxSequenceLength overrides the registry/probe-detected max length.
	MaxSequenceLength int
	// BatchSize is carried from configuration; the ONNX embedder's
	// EmbedBatch does not read it and runs all given texts in one call.
	BatchSize int
	// CacheDir is the per-user model cache directory; empty uses the OS
	// default user cache dir.
	CacheDir string
}

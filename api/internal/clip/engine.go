package clip

import "context"

// Engine is one loaded multimodal similarity model. The model is shared,
// read-only state: implementations must be safe for concurrent use and
// must not mutate anything after construction.
type Engine interface {
	Name() string
	ModelID() string
	// LogitsPerImage returns one unnormalized match score per prompt
	// for a single image, in prompt order.
	LogitsPerImage(ctx context.Context, image []byte, prompts []string) ([]float64, error)
	// Embeddings returns the image and text embeddings for a single
	// (image, prompt) pair. Vectors are not normalized.
	Embeddings(ctx context.Context, image []byte, prompt string) (img, txt []float64, err error)
}

// Package embed provides the text embedding provider consumed by the case
// store search path.
package embed

import "context"

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

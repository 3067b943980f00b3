package embed

import (
	"context"
	"fmt"
	"sync"
)

// StaticEmbedder returns fixed vectors per exact text, for tests that need
// controlled similarity between inputs. Unknown texts error unless a Default
// vector is set.
type StaticEmbedder struct {
	mu      sync.Mutex
	Vectors map[string][]float32
	Default []float32
	calls   int
}

var _ Embedder = (*StaticEmbedder)(nil)

func (e *StaticEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if vec, ok := e.Vectors[text]; ok {
		return vec, nil
	}
	if e.Default != nil {
		return e.Default, nil
	}
	return nil, fmt.Errorf("no static embedding for text: %q", text)
}

func (e *StaticEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnavailable marks an embedding-provider failure. Callers must leave the
// affected records unprocessed instead of substituting a zero vector.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Task types passed through to providers that distinguish document vs query
// embeddings.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
	// EmbedBatch embeds all texts in one provider call and returns vectors
	// in input order.
	EmbedBatch(ctx context.Context, model string, texts []string, taskType string) ([][]float32, error)
}

// IEmbedder binds a provider to a fixed model and vector dimension.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
	Dimension() int
}

type embedder struct {
	provider  IEmbedProvider
	model     string
	dimension int
}

func NewEmbedder(p IEmbedProvider, model string, dimension int) IEmbedder {
	return &embedder{provider: p, model: model, dimension: dimension}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	vec, err := e.provider.Embed(ctx, e.model, text, taskType)
	if err != nil {
		return nil, err
	}
	if err := e.checkDimension(vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func (e *embedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vecs, err := e.provider.EmbedBatch(ctx, e.model, texts, taskType)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("provider %s returned %d embeddings for %d texts", e.provider.Name(), len(vecs), len(texts))
	}
	for _, vec := range vecs {
		if err := e.checkDimension(vec); err != nil {
			return nil, err
		}
	}
	return vecs, nil
}

func (e *embedder) checkDimension(vec []float32) error {
	if len(vec) != e.dimension {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), e.dimension)
	}
	return nil
}

func (e *embedder) ModelName() string {
	return e.model
}

func (e *embedder) Dimension() int {
	return e.dimension
}

type ProviderFactory func(args interface{}) (IEmbedProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

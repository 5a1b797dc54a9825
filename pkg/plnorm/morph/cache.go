package morph

import (
	"context"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached wraps a with a fixed-size LRU cache keyed by token.
// Unknown tokens are cached too; lookup errors are not.
func Cached(a Analyzer, size int) (Analyzer, error) {
	c, err := lru.New[string, []Interpretation](size)
	if err != nil {
		return nil, err
	}
	return &cached{inner: a, cache: c}, nil
}

type cached struct {
	inner Analyzer
	cache *lru.Cache[string, []Interpretation]
}

func (c *cached) Analyse(ctx context.Context, token string) ([]Interpretation, error) {
	if hit, ok := c.cache.Get(token); ok {
		return slices.Clone(hit), nil
	}
	out, err := c.inner.Analyse(ctx, token)
	if err != nil {
		return nil, err
	}
	c.cache.Add(token, slices.Clone(out))
	return out, nil
}

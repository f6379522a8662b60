package embedding

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// EmbeddingCache is an LRU cache for embeddings keyed by text.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value []float32
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached embedding for key if present and marks it recently used.
func (c *EmbeddingCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return nil, false
}

// Set stores the embedding for key, evicting the least recently used entry if at capacity.
func (c *EmbeddingCache) Set(key string, value []float32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry{key: key, value: value})
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// CachedEmbedder serves repeated texts from an EmbeddingCache and forwards misses
// to the wrapped embedder. A batch with misses still costs one inner call.
type CachedEmbedder struct {
	inner Embedder
	cache *EmbeddingCache
}

var _ Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: NewEmbeddingCache(capacity)}
}

// Embed returns the cached vector for text or asks the inner embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return copyVector(v), nil
	}
	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, copyVector(v))
	return v, nil
}

// EmbedBatch fills cached texts locally and embeds the distinct misses in one inner call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var misses []string
	missIdx := make(map[string][]int)
	for i, text := range texts {
		if v, ok := c.cache.Get(text); ok {
			out[i] = copyVector(v)
			continue
		}
		if _, seen := missIdx[text]; !seen {
			misses = append(misses, text)
		}
		missIdx[text] = append(missIdx[text], i)
	}
	if len(misses) == 0 {
		return out, nil
	}
	vecs, err := c.inner.EmbedBatch(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(misses) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(vecs), len(misses))
	}
	for j, text := range misses {
		c.cache.Set(text, copyVector(vecs[j]))
		for _, i := range missIdx[text] {
			out[i] = copyVector(vecs[j])
		}
	}
	return out, nil
}

// Dimensions returns the inner embedder dimension.
func (c *CachedEmbedder) Dimensions() int { return c.inner.Dimensions() }

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error { return c.inner.Close() }

func copyVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

package cache

import (
	aicontext "github.com/faber6/eliz/plugin/ai/context"
)

// TokenizerCache wraps a Tokenizer and memoizes Encode.
// Trimming re-encodes the same lines and sentences many times per assembly,
// and the system prompt is identical across assemblies.
type TokenizerCache struct {
	next aicontext.Tokenizer
	lru  *LRUCache
}

// NewTokenizerCache creates a caching tokenizer in front of next.
func NewTokenizerCache(next aicontext.Tokenizer, capacity int) *TokenizerCache {
	return &TokenizerCache{
		next: next,
		lru:  NewLRUCache(capacity),
	}
}

// Encode implements Tokenizer. Errors are not cached.
func (t *TokenizerCache) Encode(text string) ([]int, error) {
	if tokens, ok := t.lru.Get(text); ok {
		return tokens, nil
	}
	tokens, err := t.next.Encode(text)
	if err != nil {
		return nil, err
	}
	t.lru.Set(text, tokens)
	return tokens, nil
}

// Decode implements Tokenizer.
func (t *TokenizerCache) Decode(tokens []int) (string, error) {
	return t.next.Decode(tokens)
}

// Stats returns encode cache hits and misses.
func (t *TokenizerCache) Stats() (hits, misses int64) {
	return t.lru.Stats()
}

var _ aicontext.Tokenizer = (*TokenizerCache)(nil)

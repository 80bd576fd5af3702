package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"meal-calendar/internal/shared"

	"go.uber.org/zap"
)

// CachedGenerator wraps a TextGenerator and remembers its answers by prompt,
// so asking for the same shopping list twice costs one model call. Hits
// report zero token usage.
type CachedGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedGenerator loads the cache from cacheFilePath if it exists. An
// empty path keeps the cache in memory only.
func NewCachedGenerator(realGen TextGenerator, cacheFilePath string) (*CachedGenerator, error) {
	c := &CachedGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
	}
	if cacheFilePath == "" {
		return c, nil
	}

	if err := os.MkdirAll(filepath.Dir(cacheFilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Debug("LLM cache file not found, starting empty", zap.String("path", cacheFilePath))
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}
	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	zap.L().Info("Loaded LLM cache", zap.Int("entries", len(c.cache)), zap.String("path", cacheFilePath))
	return c, nil
}

// GenerateContent answers from the cache or calls the wrapped generator.
// Failed calls are not cached.
func (c *CachedGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	key := promptKey(prompt)

	c.mu.Lock()
	content, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: content, Usage: shared.TokenUsage{Model: "cache"}}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, err
	}

	c.mu.Lock()
	c.cache[key] = resp.Content
	c.mu.Unlock()
	return resp, nil
}

// SaveCache persists the cache. It is a no-op for in-memory caches.
func (c *CachedGenerator) SaveCache() error {
	if c.cacheFilePath == "" {
		return nil
	}

	c.mu.Lock()
	data, err := json.MarshalIndent(c.cache, "", "  ")
	n := len(c.cache)
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	zap.L().Debug("Saved LLM cache", zap.Int("entries", n), zap.String("path", c.cacheFilePath))
	return nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

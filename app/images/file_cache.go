package images

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	gocache "github.com/patrickmn/go-cache"
)

// FileCache persists one JSON file per normalized query under cacheDir,
// fronted by an in-process map so repeated lookups within a run skip the
// filesystem. Files are never expired by this cache; cleanup is external.
type FileCache struct {
	cacheDir string
	memory   *gocache.Cache
}

func NewFileCache(cacheDir string) *FileCache {
	return &FileCache{
		cacheDir: cacheDir,
		memory:   gocache.New(gocache.NoExpiration, 0),
	}
}

func (c *FileCache) Get(query string) ([]Image, error) {
	key := NormalizeQuery(query)

	if cached, ok := c.memory.Get(key); ok {
		return cached.([]Image), nil
	}

	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var results []Image
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}

	c.memory.Set(key, results, gocache.NoExpiration)
	return results, nil
}

func (c *FileCache) Set(query string, results []Image) error {
	if len(results) == 0 {
		return nil
	}
	key := NormalizeQuery(query)

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.memory.Set(key, results, gocache.NoExpiration)
	return nil
}

func (c *FileCache) filePath(key string) string {
	return filepath.Join(c.cacheDir, key+".json")
}

// NormalizeQuery lowercases the query and reduces it to a filesystem-safe
// key: runs of non-alphanumeric characters collapse to single underscores.
func NormalizeQuery(query string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(query)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

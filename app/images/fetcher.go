package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const maxSearchAttempts = 3

// ComposeQueries builds the ordered query list for a city. Coordinates
// add a final location-qualified query when both are known.
func ComposeQueries(name, country string, lat, lng float64) []string {
	var queries []string
	if name != "" && country != "" {
		queries = append(queries,
			fmt.Sprintf("%s skyline %s", name, country),
			fmt.Sprintf("%s %s landmarks", name, country),
			fmt.Sprintf("%s %s city", name, country),
		)
	} else if name != "" {
		queries = append(queries,
			fmt.Sprintf("%s skyline", name),
			fmt.Sprintf("%s city", name),
		)
	}
	if lat != 0 && lng != 0 {
		queries = append(queries, fmt.Sprintf("%s %v,%v", name, lat, lng))
	}
	return queries
}

// Fetcher acquires image metadata across a fixed priority order of
// providers, caching the winning result set per query.
type Fetcher struct {
	providers      []Provider
	cache          QueryCache
	requestTimeout time.Duration
	retryBackoff   time.Duration
}

func NewFetcher(providers []Provider, cache QueryCache, requestTimeout, retryBackoff time.Duration) *Fetcher {
	return &Fetcher{
		providers:      providers,
		cache:          cache,
		requestTimeout: requestTimeout,
		retryBackoff:   retryBackoff,
	}
}

// Run walks the queries in order, merging per-query results with URL
// deduplication (first occurrence wins) and stopping once needed images
// are collected. A short collection is tiled cyclically up to needed, so
// the returned URL list always has exactly needed entries when at least
// one image was found. Returns ErrNoImages when nothing was found at all.
func (f *Fetcher) Run(ctx context.Context, queries []string, needed int) ([]string, []Image, error) {
	if needed <= 0 {
		return []string{}, []Image{}, nil
	}

	var collected []Image
	seen := make(map[string]struct{})

	for _, query := range queries {
		if len(collected) >= needed {
			break
		}

		results := f.lookup(ctx, query, needed)
		for _, img := range results {
			if _, ok := seen[img.URL]; ok {
				continue
			}
			seen[img.URL] = struct{}{}
			collected = append(collected, img)
			if len(collected) >= needed {
				break
			}
		}
	}

	if len(collected) == 0 {
		slog.Error("No images found for any query", "queries", len(queries))
		return []string{}, []Image{}, ErrNoImages
	}

	urls := make([]string, 0, needed)
	for _, img := range collected {
		urls = append(urls, img.URL)
	}
	if len(urls) < needed {
		slog.Warn("Backfilling short image set by tiling", "found", len(urls), "needed", needed)
		urls = Tile(urls, needed)
	}

	return urls, collected, nil
}

// lookup resolves one query: cache hit short-circuits the providers,
// otherwise the first provider returning a non-empty set wins and its
// results are cached. Provider failures degrade to "nothing" and move on.
func (f *Fetcher) lookup(ctx context.Context, query string, perPage int) []Image {
	cached, err := f.cache.Get(query)
	if err != nil {
		slog.Warn("Query cache read failed", "query", query, "error", err)
	} else if cached != nil {
		slog.Debug("Query cache hit", "query", query, "results", len(cached))
		return cached
	}

	for _, provider := range f.providers {
		results, err := f.searchWithRetry(ctx, provider, query, perPage)
		if err != nil {
			slog.Warn("Provider search failed", "provider", provider.Name(), "query", query, "error", err)
			continue
		}
		if len(results) == 0 {
			slog.Debug("Provider returned no results", "provider", provider.Name(), "query", query)
			continue
		}

		if err := f.cache.Set(query, results); err != nil {
			slog.Warn("Query cache write failed", "query", query, "error", err)
		}
		return results
	}

	return nil
}

func (f *Fetcher) searchWithRetry(ctx context.Context, provider Provider, query string, perPage int) ([]Image, error) {
	var lastErr error

	for attempt := 1; attempt <= maxSearchAttempts; attempt++ {
		timeoutCtx, cancel := context.WithTimeout(ctx, f.requestTimeout)
		results, err := provider.Search(timeoutCtx, query, perPage)
		cancel()

		if err == nil {
			return results, nil
		}
		lastErr = err

		if !errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if attempt == maxSearchAttempts {
			break
		}

		slog.Warn("Provider rate limited, backing off", "provider", provider.Name(), "attempt", attempt, "backoff", f.retryBackoff.String())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.retryBackoff):
		}
	}

	return nil, lastErr
}

// Tile repeats items cyclically until the list reaches exactly needed
// entries. Callers downstream expect a fixed image count.
func Tile[T any](items []T, needed int) []T {
	if len(items) == 0 || len(items) >= needed {
		return items
	}
	tiled := make([]T, needed)
	for i := 0; i < needed; i++ {
		tiled[i] = items[i%len(items)]
	}
	return tiled
}

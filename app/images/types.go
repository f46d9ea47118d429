package images

import (
	"context"
	"errors"
)

// Image is the metadata for one search result. The source URL doubles as
// the deduplication key across providers and queries.
type Image struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Photographer string `json:"photographer"`
	Provider     string `json:"provider"`
	SourceURL    string `json:"source_url"`
}

// ErrNoImages is returned when no provider produced a single image for
// any query. Callers must treat this as "cannot proceed".
var ErrNoImages = errors.New("no images found for any query")

// ErrRateLimited marks a provider 429 response. The fetcher retries these
// with a fixed backoff, bounded by its attempt cap.
var ErrRateLimited = errors.New("provider rate limited")

// Provider is one external image-search service. Providers are consulted
// in a fixed priority order; the first non-empty result set wins.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, perPage int) ([]Image, error)
}

// QueryCache stores the winning provider's result set per normalized
// query. Entries are never expired by this system.
type QueryCache interface {
	Get(query string) ([]Image, error)
	Set(query string, results []Image) error
}

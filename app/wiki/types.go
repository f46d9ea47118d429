package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Summary is the narration source for a city video. Chunks hold the
// summary split into overlay-sized pieces.
type Summary struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Chunks  []string `json:"chunks"`
	URL     string   `json:"url,omitempty"`
}

// Page is one resolved article.
type Page struct {
	Title          string
	Extract        string
	URL            string
	Disambiguation bool
}

// API is the subset of the MediaWiki action API the fetcher needs.
type API interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Page(ctx context.Context, title string, sentences int) (*Page, error)
	Links(ctx context.Context, title string, limit int) ([]string, error)
}

// Placeholder stands in when no usable article could be resolved.
func Placeholder(name string) *Summary {
	return &Summary{
		Title:   name,
		Summary: fmt.Sprintf("No Wikipedia summary found for %s.", name),
	}
}

// Save writes the summary as wiki.json under the city's data directory.
func (s *Summary) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(dir, "wiki.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

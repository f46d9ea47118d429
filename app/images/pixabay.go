package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const pixabaySearchURL = "https://pixabay.com/api/"

type PixabayProvider struct {
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

func NewPixabayProvider(apiKey string, httpClient *http.Client, userAgent string) *PixabayProvider {
	return &PixabayProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (p *PixabayProvider) Name() string {
	return "pixabay"
}

func (p *PixabayProvider) Search(ctx context.Context, query string, perPage int) ([]Image, error) {
	// Pixabay rejects per_page values below 3
	if perPage < 3 {
		perPage = 3
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", query)
	params.Set("image_type", "photo")
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, "GET", pixabaySearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pixabay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("pixabay: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var body struct {
		Hits []struct {
			LargeImageURL string `json:"largeImageURL"`
			PreviewURL    string `json:"previewURL"`
			User          string `json:"user"`
			PageURL       string `json:"pageURL"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode pixabay response: %w", err)
	}

	results := make([]Image, 0, len(body.Hits))
	for _, hit := range body.Hits {
		if hit.LargeImageURL == "" {
			continue
		}
		results = append(results, Image{
			URL:          hit.LargeImageURL,
			ThumbnailURL: hit.PreviewURL,
			Photographer: hit.User,
			Provider:     p.Name(),
			SourceURL:    hit.PageURL,
		})
	}

	return results, nil
}

package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const unsplashSearchURL = "https://api.unsplash.com/search/photos"

type UnsplashProvider struct {
	accessKey  string
	httpClient *http.Client
	userAgent  string
}

func NewUnsplashProvider(accessKey string, httpClient *http.Client, userAgent string) *UnsplashProvider {
	return &UnsplashProvider{
		accessKey:  accessKey,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (p *UnsplashProvider) Name() string {
	return "unsplash"
}

func (p *UnsplashProvider) Search(ctx context.Context, query string, perPage int) ([]Image, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, "GET", unsplashSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unsplash request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("unsplash: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var body struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
				Thumb   string `json:"thumb"`
			} `json:"urls"`
			User struct {
				Name string `json:"name"`
			} `json:"user"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode unsplash response: %w", err)
	}

	results := make([]Image, 0, len(body.Results))
	for _, photo := range body.Results {
		if photo.URLs.Regular == "" {
			continue
		}
		results = append(results, Image{
			URL:          photo.URLs.Regular,
			ThumbnailURL: photo.URLs.Thumb,
			Photographer: photo.User.Name,
			Provider:     p.Name(),
			SourceURL:    photo.Links.HTML,
		})
	}

	return results, nil
}

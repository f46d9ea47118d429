package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const pexelsSearchURL = "https://api.pexels.com/v1/search"

type PexelsProvider struct {
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

func NewPexelsProvider(apiKey string, httpClient *http.Client, userAgent string) *PexelsProvider {
	return &PexelsProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (p *PexelsProvider) Name() string {
	return "pexels"
}

func (p *PexelsProvider) Search(ctx context.Context, query string, perPage int) ([]Image, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, "GET", pexelsSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("pexels: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var body struct {
		Photos []struct {
			URL          string `json:"url"`
			Photographer string `json:"photographer"`
			Src          struct {
				Large2x string `json:"large2x"`
				Medium  string `json:"medium"`
			} `json:"src"`
		} `json:"photos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode pexels response: %w", err)
	}

	results := make([]Image, 0, len(body.Photos))
	for _, photo := range body.Photos {
		if photo.Src.Large2x == "" {
			continue
		}
		results = append(results, Image{
			URL:          photo.Src.Large2x,
			ThumbnailURL: photo.Src.Medium,
			Photographer: photo.Photographer,
			Provider:     p.Name(),
			SourceURL:    photo.URL,
		})
	}

	return results, nil
}

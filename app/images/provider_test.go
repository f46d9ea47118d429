package images

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
)

func TestPexelsProvider_Search(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", pexelsSearchURL,
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "test-key" {
				t.Errorf("Expected API key in Authorization header, got %q", req.Header.Get("Authorization"))
			}
			if req.URL.Query().Get("query") != "Tokyo skyline Japan" {
				t.Errorf("Unexpected query param: %q", req.URL.Query().Get("query"))
			}
			return httpmock.NewStringResponse(200, `{
				"photos": [
					{
						"url": "https://www.pexels.com/photo/1",
						"photographer": "Alice",
						"src": {"large2x": "https://images.pexels.com/1_large.jpg", "medium": "https://images.pexels.com/1_med.jpg"}
					},
					{
						"url": "https://www.pexels.com/photo/2",
						"photographer": "Bob",
						"src": {"large2x": "", "medium": "https://images.pexels.com/2_med.jpg"}
					}
				]
			}`), nil
		})

	provider := NewPexelsProvider("test-key", http.DefaultClient, "test-agent")
	results, err := provider.Search(context.Background(), "Tokyo skyline Japan", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result (entry without large2x skipped), got %d", len(results))
	}
	img := results[0]
	if img.URL != "https://images.pexels.com/1_large.jpg" {
		t.Errorf("Unexpected URL: %s", img.URL)
	}
	if img.Photographer != "Alice" {
		t.Errorf("Unexpected photographer: %s", img.Photographer)
	}
	if img.Provider != "pexels" {
		t.Errorf("Unexpected provider label: %s", img.Provider)
	}
	if img.SourceURL != "https://www.pexels.com/photo/1" {
		t.Errorf("Unexpected source URL: %s", img.SourceURL)
	}
}

func TestPexelsProvider_RateLimited(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", pexelsSearchURL,
		httpmock.NewStringResponder(429, "Too Many Requests"))

	provider := NewPexelsProvider("test-key", http.DefaultClient, "test-agent")
	_, err := provider.Search(context.Background(), "Tokyo", 5)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestUnsplashProvider_Search(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", unsplashSearchURL,
		func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("Authorization") != "Client-ID test-key" {
				t.Errorf("Expected Client-ID auth header, got %q", req.Header.Get("Authorization"))
			}
			return httpmock.NewStringResponse(200, `{
				"results": [
					{
						"urls": {"regular": "https://images.unsplash.com/1_reg.jpg", "thumb": "https://images.unsplash.com/1_thumb.jpg"},
						"user": {"name": "Carol"},
						"links": {"html": "https://unsplash.com/photos/1"}
					}
				]
			}`), nil
		})

	provider := NewUnsplashProvider("test-key", http.DefaultClient, "test-agent")
	results, err := provider.Search(context.Background(), "Lima skyline Peru", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].URL != "https://images.unsplash.com/1_reg.jpg" {
		t.Errorf("Unexpected URL: %s", results[0].URL)
	}
	if results[0].Photographer != "Carol" {
		t.Errorf("Unexpected photographer: %s", results[0].Photographer)
	}
	if results[0].Provider != "unsplash" {
		t.Errorf("Unexpected provider label: %s", results[0].Provider)
	}
}

func TestPixabayProvider_Search(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", pixabaySearchURL,
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("key") != "test-key" {
				t.Errorf("Expected API key query param, got %q", req.URL.Query().Get("key"))
			}
			if req.URL.Query().Get("per_page") != "3" {
				t.Errorf("Expected per_page floored to 3, got %q", req.URL.Query().Get("per_page"))
			}
			return httpmock.NewStringResponse(200, `{
				"hits": [
					{
						"largeImageURL": "https://pixabay.com/get/1_large.jpg",
						"previewURL": "https://pixabay.com/get/1_prev.jpg",
						"user": "dave",
						"pageURL": "https://pixabay.com/photos/1"
					}
				]
			}`), nil
		})

	provider := NewPixabayProvider("test-key", http.DefaultClient, "test-agent")
	results, err := provider.Search(context.Background(), "Atlantis city", 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].URL != "https://pixabay.com/get/1_large.jpg" {
		t.Errorf("Unexpected URL: %s", results[0].URL)
	}
	if results[0].Provider != "pixabay" {
		t.Errorf("Unexpected provider label: %s", results[0].Provider)
	}
}

func TestProvider_HTTPError(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", pexelsSearchURL,
		httpmock.NewStringResponder(500, "Internal Server Error"))

	provider := NewPexelsProvider("test-key", http.DefaultClient, "test-agent")
	_, err := provider.Search(context.Background(), "Tokyo", 5)
	if err == nil {
		t.Fatal("Expected error on HTTP 500")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("HTTP 500 must not be treated as rate limiting")
	}
}

package images

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func TestDownloader_Run(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.example.com/a.jpg",
		httpmock.NewBytesResponder(200, []byte("image-a")))
	httpmock.RegisterResponder("GET", "https://img.example.com/b.jpg",
		httpmock.NewBytesResponder(200, []byte("image-b")))

	dir := t.TempDir()
	downloader := NewDownloader(http.DefaultClient, "test-agent", time.Second)

	imgs := []Image{
		{URL: "https://img.example.com/a.jpg"},
		{URL: "https://img.example.com/b.jpg"},
	}
	paths, err := downloader.Run(context.Background(), imgs, dir, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("Expected 2 paths, got %d", len(paths))
	}
	for i, expected := range []string{"photo1.jpg", "photo2.jpg"} {
		if filepath.Base(paths[i]) != expected {
			t.Errorf("Path %d: expected %s, got %s", i, expected, filepath.Base(paths[i]))
		}
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "image-a" {
		t.Errorf("Unexpected file content: %q", string(data))
	}
}

func TestDownloader_Run_SkipsFailuresAndTiles(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.example.com/ok.jpg",
		httpmock.NewBytesResponder(200, []byte("ok")))
	httpmock.RegisterResponder("GET", "https://img.example.com/gone.jpg",
		httpmock.NewStringResponder(404, "Not Found"))

	dir := t.TempDir()
	downloader := NewDownloader(http.DefaultClient, "test-agent", time.Second)

	imgs := []Image{
		{URL: "https://img.example.com/ok.jpg"},
		{URL: "https://img.example.com/gone.jpg"},
	}
	paths, err := downloader.Run(context.Background(), imgs, dir, 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("Expected path list tiled to 3, got %d", len(paths))
	}
	for i, path := range paths {
		if filepath.Base(path) != "photo1.jpg" {
			t.Errorf("Path %d: expected the tiled successful download, got %s", i, filepath.Base(path))
		}
	}
}

func TestDownloader_Run_AllFailed(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://img.example.com/gone.jpg",
		httpmock.NewStringResponder(404, "Not Found"))

	downloader := NewDownloader(http.DefaultClient, "test-agent", time.Second)
	_, err := downloader.Run(context.Background(), []Image{{URL: "https://img.example.com/gone.jpg"}}, t.TempDir(), 1)
	if err == nil {
		t.Fatal("Expected error when no image could be downloaded")
	}
}

func TestDownloader_Run_ReusesExistingFiles(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	dir := t.TempDir()
	existing := filepath.Join(dir, "photo1.jpg")
	if err := os.WriteFile(existing, []byte("cached-earlier"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	// No responder registered: a network hit would fail the test
	downloader := NewDownloader(http.DefaultClient, "test-agent", time.Second)
	paths, err := downloader.Run(context.Background(), []Image{{URL: "https://img.example.com/a.jpg"}}, dir, 1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(paths) != 1 || paths[0] != existing {
		t.Errorf("Expected the pre-existing file to be reused, got %v", paths)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "cached-earlier" {
		t.Errorf("Existing file must not be overwritten, got %q", string(data))
	}
}

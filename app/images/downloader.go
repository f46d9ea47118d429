package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Downloader saves fetched images into a city's images directory using
// positional names (photo1.jpg, photo2.jpg, ...). Existing files are kept
// as-is, so reruns for the same city reuse earlier downloads.
type Downloader struct {
	httpClient     *http.Client
	userAgent      string
	requestTimeout time.Duration
}

func NewDownloader(httpClient *http.Client, userAgent string, requestTimeout time.Duration) *Downloader {
	return &Downloader{
		httpClient:     httpClient,
		userAgent:      userAgent,
		requestTimeout: requestTimeout,
	}
}

// Run downloads up to needed unique images into dir and tiles the
// resulting path list to exactly needed entries. Individual download
// failures are logged and skipped, never fatal.
func (d *Downloader) Run(ctx context.Context, imgs []Image, dir string, needed int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	var paths []string
	for idx, img := range imgs {
		if len(paths) >= needed {
			break
		}

		path := filepath.Join(dir, fmt.Sprintf("photo%d.jpg", idx+1))
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
			continue
		}

		if err := d.downloadOne(ctx, img.URL, path); err != nil {
			slog.Warn("Failed to download image", "url", img.URL, "error", err)
			continue
		}
		paths = append(paths, path)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no images could be downloaded to %s", dir)
	}
	if len(paths) < needed {
		slog.Warn("Tiling downloaded images to required count", "downloaded", len(paths), "needed", needed)
		paths = Tile(paths, needed)
	}

	return paths, nil
}

func (d *Downloader) downloadOne(ctx context.Context, url, path string) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write image: %w", err)
	}

	return file.Close()
}

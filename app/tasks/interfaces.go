package tasks

import (
	"context"

	"github.com/lysyi3m/city-reels/app/images"
	"github.com/lysyi3m/city-reels/app/wiki"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API to manage background task
// processing: queue management, worker pool control and channel scheduling.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	RunChannelNow(channelName string) error
}

// SummaryFetcher resolves a city to its narration summary.
type SummaryFetcher interface {
	Fetch(ctx context.Context, name, country string, sentences, chunkSize int) *wiki.Summary
}

// ImageFetcher acquires image metadata for a set of search queries.
type ImageFetcher interface {
	Run(ctx context.Context, queries []string, needed int) ([]string, []images.Image, error)
}

// ImageDownloader saves image files into a city's data directory.
type ImageDownloader interface {
	Run(ctx context.Context, imgs []images.Image, dir string, needed int) ([]string, error)
}

// Publisher posts finished videos and maintains the access token.
type Publisher interface {
	PublishReel(ctx context.Context, videoPath, caption string) (string, error)
	RefreshToken(ctx context.Context) (string, error)
}

package video

import "context"

// Job describes one reel to render.
type Job struct {
	ImagePaths      []string
	Title           string
	FactChunks      []string
	OutputPath      string
	MusicPath       string
	SecondsPerImage int
}

// Builder renders a portrait slideshow video from a job.
type Builder interface {
	Run(ctx context.Context, job Job) error
}

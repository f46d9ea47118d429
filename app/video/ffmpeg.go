package video

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	frameWidth          = 1080
	frameHeight         = 1920
	fadeDuration        = 0.5
	defaultImageSeconds = 3
)

// FFmpegBuilder shells out to ffmpeg to stitch images into a portrait
// slideshow with crossfades, a title overlay and per-segment fact text.
type FFmpegBuilder struct {
	ffmpegPath string
}

func NewFFmpegBuilder(ffmpegPath string) *FFmpegBuilder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegBuilder{ffmpegPath: ffmpegPath}
}

func (b *FFmpegBuilder) Run(ctx context.Context, job Job) error {
	if len(job.ImagePaths) == 0 {
		return fmt.Errorf("no images to render")
	}
	if job.OutputPath == "" {
		return fmt.Errorf("no output path")
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := b.buildArgs(job)
	slog.Debug("Rendering video", "output", job.OutputPath, "images", len(job.ImagePaths))

	cmd := exec.CommandContext(ctx, b.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 500))
	}

	return nil
}

func (b *FFmpegBuilder) buildArgs(job Job) []string {
	seconds := job.SecondsPerImage
	if seconds <= 0 {
		seconds = defaultImageSeconds
	}

	args := []string{"-y"}
	for _, path := range job.ImagePaths {
		args = append(args, "-loop", "1", "-t", strconv.Itoa(seconds), "-i", path)
	}
	if job.MusicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", job.MusicPath)
	}

	args = append(args, "-filter_complex", b.buildFilter(job, seconds))
	args = append(args, "-map", "[outv]")
	if job.MusicPath != "" {
		args = append(args, "-map", fmt.Sprintf("%d:a", len(job.ImagePaths)), "-shortest", "-c:a", "aac")
	}
	args = append(args,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		job.OutputPath,
	)

	return args
}

// buildFilter scales every image to the portrait frame, fades each
// segment in and out, concatenates them and draws the title plus the
// fact chunk belonging to each segment.
func (b *FFmpegBuilder) buildFilter(job Job, seconds int) string {
	var filter strings.Builder

	fadeOutStart := float64(seconds) - fadeDuration
	for i := range job.ImagePaths {
		fmt.Fprintf(&filter,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,"+
				"fade=t=in:st=0:d=%.1f,fade=t=out:st=%.1f:d=%.1f[v%d];",
			i, frameWidth, frameHeight, frameWidth, frameHeight,
			fadeDuration, fadeOutStart, fadeDuration, i)
	}

	for i := range job.ImagePaths {
		fmt.Fprintf(&filter, "[v%d]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[stitched];", len(job.ImagePaths))

	filter.WriteString("[stitched]")
	fmt.Fprintf(&filter,
		"drawtext=text='%s':fontsize=72:fontcolor=white:borderw=4:bordercolor=black:x=(w-text_w)/2:y=120",
		escapeDrawtext(job.Title))

	overlays := len(job.FactChunks)
	if overlays > len(job.ImagePaths) {
		overlays = len(job.ImagePaths)
	}
	for i := 0; i < overlays; i++ {
		start := i * seconds
		end := (i + 1) * seconds
		fmt.Fprintf(&filter,
			",drawtext=text='%s':fontsize=44:fontcolor=white:borderw=3:bordercolor=black:"+
				"x=(w-text_w)/2:y=h-420:enable='between(t\\,%d\\,%d)'",
			escapeDrawtext(job.FactChunks[i]), start, end)
	}

	filter.WriteString("[outv]")
	return filter.String()
}

// escapeDrawtext quotes the characters ffmpeg's drawtext filter treats
// specially.
func escapeDrawtext(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
		`,`, `\,`,
	)
	return replacer.Replace(text)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

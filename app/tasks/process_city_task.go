package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/city"
	"github.com/lysyi3m/city-reels/app/database"
	"github.com/lysyi3m/city-reels/app/images"
	"github.com/lysyi3m/city-reels/app/publisher"
	"github.com/lysyi3m/city-reels/app/video"
)

// ProcessCityTask produces one reel for a channel: pick an unposted
// city, gather its summary and images, render the video and publish it
// when the channel asks for that.
type ProcessCityTask struct {
	Task
	ChannelConfig *channel.Config
	picker        *city.Picker
	posted        *city.PostedStore
	wikiFetcher   SummaryFetcher
	imageFetcher  ImageFetcher
	downloader    ImageDownloader
	builder       video.Builder
	publisher     Publisher
	reelRepo      database.ReelRepository
	dataDir       string
}

func NewProcessCityTask(channelName string, channelConfig *channel.Config, picker *city.Picker,
	posted *city.PostedStore, wikiFetcher SummaryFetcher, imageFetcher ImageFetcher,
	downloader ImageDownloader, builder video.Builder, pub Publisher,
	reelRepo database.ReelRepository, dataDir string) *ProcessCityTask {
	return &ProcessCityTask{
		Task:          NewTask(TaskTypeProcessCity, channelName),
		ChannelConfig: channelConfig,
		picker:        picker,
		posted:        posted,
		wikiFetcher:   wikiFetcher,
		imageFetcher:  imageFetcher,
		downloader:    downloader,
		builder:       builder,
		publisher:     pub,
		reelRepo:      reelRepo,
		dataDir:       dataDir,
	}
}

func (t *ProcessCityTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.ChannelConfig.Settings.Enabled {
		slog.Debug("Channel disabled, skipping", "channel", t.ChannelName)
		return nil
	}

	picked, err := t.pickCity()
	if err != nil {
		return fmt.Errorf("failed to pick city: %w", err)
	}
	slog.Info("City picked", "channel", t.ChannelName, "city", picked.Name, "country", picked.Country)

	cityDir := filepath.Join(t.dataDir, city.SanitizeName(picked.Name))

	reelID, err := t.reelRepo.InsertReel(t.ChannelName, picked.Key(), picked.Name, picked.Country)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	settings := t.ChannelConfig.Settings
	summary := t.wikiFetcher.Fetch(ctx, picked.Name, picked.Country, settings.SummarySentences, settings.ChunkSize)
	if err := summary.Save(cityDir); err != nil {
		slog.Warn("Failed to persist summary", "city", picked.Name, "error", err)
	}

	queries := images.ComposeQueries(picked.Name, picked.Country, picked.Lat, picked.Lng)
	_, meta, err := t.imageFetcher.Run(ctx, queries, settings.ImagesNeeded)
	if err != nil {
		return t.fail(reelID, fmt.Errorf("failed to fetch images: %w", err))
	}

	paths, err := t.downloader.Run(ctx, meta, filepath.Join(cityDir, "images"), settings.ImagesNeeded)
	if err != nil {
		return t.fail(reelID, fmt.Errorf("failed to download images: %w", err))
	}

	title := picked.Name
	if picked.Country != "" {
		title = fmt.Sprintf("%s, %s", picked.Name, picked.Country)
	}

	outputPath := filepath.Join(cityDir, "reel.mp4")
	job := video.Job{
		ImagePaths:      paths,
		Title:           title,
		FactChunks:      summary.Chunks,
		OutputPath:      outputPath,
		MusicPath:       settings.MusicPath,
		SecondsPerImage: settings.SecondsPerImage,
	}
	if err := t.builder.Run(ctx, job); err != nil {
		return t.fail(reelID, fmt.Errorf("failed to build video: %w", err))
	}
	if err := t.reelRepo.MarkRendered(reelID, title, outputPath); err != nil {
		slog.Warn("Failed to record rendered video", "city", picked.Name, "error", err)
	}

	postID := ""
	if settings.Publish {
		caption := t.ChannelConfig.RenderCaption(title, picked.Name, picked.Country)
		postID, err = t.publisher.PublishReel(ctx, outputPath, caption)
		if err != nil {
			if errors.Is(err, publisher.ErrMissingCredentials) {
				return t.fail(reelID, err)
			}
			return t.fail(reelID, fmt.Errorf("failed to publish reel: %w", err))
		}
		if err := t.reelRepo.MarkPublished(reelID, postID); err != nil {
			slog.Warn("Failed to record publish", "city", picked.Name, "error", err)
		}
	}

	record := city.PostedRecord{
		ID:      picked.ID,
		City:    picked.Name,
		Country: picked.Country,
		Sources: providerNames(meta),
		PostID:  postID,
	}
	if err := t.posted.Save(record); err != nil {
		return fmt.Errorf("failed to append posted record: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"channel", t.ChannelName,
		"city", picked.Name,
		"duration", t.GetDuration(),
		"published", settings.Publish)

	return nil
}

func (t *ProcessCityTask) pickCity() (city.City, error) {
	if t.ChannelConfig.Settings.ReservoirSampling {
		return t.picker.PickReservoir()
	}
	return t.picker.PickBulk()
}

func (t *ProcessCityTask) fail(reelID int64, cause error) error {
	if err := t.reelRepo.MarkFailed(reelID, cause.Error()); err != nil {
		slog.Warn("Failed to record run failure", "reel_id", reelID, "error", err)
	}
	return cause
}

func providerNames(imgs []images.Image) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, img := range imgs {
		if _, ok := seen[img.Provider]; ok || img.Provider == "" {
			continue
		}
		seen[img.Provider] = struct{}{}
		names = append(names, img.Provider)
	}
	return names
}

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/lysyi3m/city-reels/app/cfg"
	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/city"
	"github.com/lysyi3m/city-reels/app/database"
	"github.com/lysyi3m/city-reels/app/video"
)

const tokenRefreshInterval = 7 * 24 * time.Hour

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	configCache  *channel.ConfigCache
	reelRepo     database.ReelRepository
	posted       *city.PostedStore
	wikiFetcher  SummaryFetcher
	imageFetcher ImageFetcher
	downloader   ImageDownloader
	builder      video.Builder
	publisher    Publisher
	dataDir      string
	interval     time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	// due times are touched only by the ticker goroutine
	nextRuns         map[string]time.Time
	nextTokenRefresh time.Time
}

func NewScheduler(configCache *channel.ConfigCache, reelRepo database.ReelRepository,
	posted *city.PostedStore, wikiFetcher SummaryFetcher, imageFetcher ImageFetcher,
	downloader ImageDownloader, builder video.Builder, pub Publisher) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		configCache:  configCache,
		reelRepo:     reelRepo,
		posted:       posted,
		wikiFetcher:  wikiFetcher,
		imageFetcher: imageFetcher,
		downloader:   downloader,
		builder:      builder,
		publisher:    pub,
		dataDir:      cfg.DataDir,
		interval:     time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 100),
		nextRuns:     make(map[string]time.Time),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.scheduleStartup()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// scheduleStartup seeds the per-channel due times from their cron
// expressions and queues an initial token refresh. Channels do not post
// at startup; they wait for their next scheduled slot.
func (s *Scheduler) scheduleStartup() {
	now := time.Now()

	for name, config := range s.configCache.GetEnabledConfigs() {
		sched, err := channel.ParseSchedule(config.Settings.Schedule)
		if err != nil {
			slog.Warn("Invalid channel schedule", "channel", name, "schedule", config.Settings.Schedule, "error", err)
			continue
		}
		s.nextRuns[name] = sched.Next(now)
		slog.Info("Channel scheduled", "channel", name, "next_run", s.nextRuns[name].Format(time.RFC3339))
	}

	if err := s.EnqueueTask(NewRefreshTokenTask(s.publisher)); err != nil {
		slog.Warn("Failed to enqueue RefreshTokenTask", "error", err)
	}
	s.nextTokenRefresh = now.Add(tokenRefreshInterval)
}

func (s *Scheduler) enqueueDueTasks() {
	now := time.Now()

	for name, config := range s.configCache.GetEnabledConfigs() {
		sched, err := channel.ParseSchedule(config.Settings.Schedule)
		if err != nil {
			slog.Warn("Invalid channel schedule", "channel", name, "schedule", config.Settings.Schedule, "error", err)
			continue
		}

		next, known := s.nextRuns[name]
		if !known {
			// Channel added after startup
			s.nextRuns[name] = sched.Next(now)
			continue
		}
		if now.Before(next) {
			continue
		}

		if err := s.enqueueProcessCity(name, config); err != nil {
			slog.Warn("Failed to enqueue ProcessCityTask", "channel", name, "error", err)
			continue
		}
		s.nextRuns[name] = sched.Next(now)
	}

	if !s.nextTokenRefresh.IsZero() && now.After(s.nextTokenRefresh) {
		if err := s.EnqueueTask(NewRefreshTokenTask(s.publisher)); err != nil {
			slog.Warn("Failed to enqueue RefreshTokenTask", "error", err)
		} else {
			s.nextTokenRefresh = now.Add(tokenRefreshInterval)
		}
	}
}

// RunChannelNow queues an immediate production run, bypassing the
// channel's cron schedule. Used by the API trigger endpoint.
func (s *Scheduler) RunChannelNow(name string) error {
	config, err := s.configCache.GetConfig(name)
	if err != nil {
		return err
	}
	return s.enqueueProcessCity(name, config)
}

func (s *Scheduler) enqueueProcessCity(name string, config *channel.Config) error {
	datasetPath := config.Dataset
	if !filepath.IsAbs(datasetPath) {
		datasetPath = filepath.Join(s.dataDir, datasetPath)
	}

	picker := city.NewPicker(city.NewDataset(datasetPath), s.posted)
	task := NewProcessCityTask(name, config, picker, s.posted, s.wikiFetcher,
		s.imageFetcher, s.downloader, s.builder, s.publisher, s.reelRepo, s.dataDir)
	return s.EnqueueTask(task)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 15*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "channel", task.GetChannelName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked in the wait group so Stop cannot close the queue
			// while a retry enqueue is pending.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}

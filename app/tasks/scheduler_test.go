package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/city-reels/app/cfg"
	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/city"
)

func newSchedulerFixture(t *testing.T) (TaskSchedulerInterface, *city.PostedStore, *stubReelRepo) {
	t.Helper()
	dataDir := t.TempDir()

	cfg.Set(&cfg.Cfg{
		DataDir:           dataDir,
		WorkerCount:       1,
		SchedulerInterval: 3600,
	})

	dataset := "city,city_ascii,country,lat,lng,id\n" +
		"Tokyo,Tokyo,Japan,35.6897,139.6922,1392685764\n" +
		"Lima,Lima,Peru,-12.06,-77.0375,1604728603\n"
	if err := os.WriteFile(filepath.Join(dataDir, "cities.csv"), []byte(dataset), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	channelsDir := t.TempDir()
	configYAML := `dataset: cities.csv
settings:
  enabled: true
  schedule: "@daily"
  images_needed: 2
`
	if err := os.WriteFile(filepath.Join(channelsDir, "city_reels.yml"), []byte(configYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	configCache := channel.NewConfigCache(channelsDir)
	if err := configCache.Run(); err != nil {
		t.Fatalf("ConfigCache.Run failed: %v", err)
	}

	posted := city.NewPostedStore(filepath.Join(dataDir, "posted.jsonl"))
	repo := &stubReelRepo{}

	scheduler := NewScheduler(configCache, repo, posted, &stubSummaryFetcher{},
		&stubImageFetcher{}, &stubDownloader{}, &stubBuilder{}, &stubPublisher{})
	return scheduler, posted, repo
}

func TestScheduler_RunChannelNow(t *testing.T) {
	scheduler, posted, _ := newSchedulerFixture(t)

	scheduler.Start()
	defer scheduler.Stop()

	if err := scheduler.RunChannelNow("city_reels"); err != nil {
		t.Fatalf("RunChannelNow failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		keys, err := posted.Load()
		if err != nil {
			t.Fatalf("Load posted failed: %v", err)
		}
		if len(keys) == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Worker did not complete the run in time, posted=%v", keys)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduler_RunChannelNow_UnknownChannel(t *testing.T) {
	scheduler, _, _ := newSchedulerFixture(t)

	if err := scheduler.RunChannelNow("nope"); err == nil {
		t.Error("Expected error for unknown channel")
	}
}

type failingTask struct {
	Task
	executions chan struct{}
}

func (t *failingTask) Execute(ctx context.Context) error {
	t.executions <- struct{}{}
	return errors.New("boom")
}

// Stop must return cleanly while a failed task is waiting out its retry
// delay, without the retry enqueue hitting a closed queue.
func TestScheduler_StopWithPendingRetry(t *testing.T) {
	scheduler, _, _ := newSchedulerFixture(t)
	scheduler.Start()

	task := &failingTask{Task: NewTask(TaskTypeProcessCity, "city_reels"), executions: make(chan struct{}, 4)}
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	select {
	case <-task.executions:
	case <-time.After(3 * time.Second):
		t.Fatal("Task was never executed")
	}

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a retry was pending")
	}
}

package tasks

import (
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	task := NewTask(TaskTypeProcessCity, "city_reels")

	if task.GetType() != TaskTypeProcessCity {
		t.Errorf("Unexpected type: %s", task.GetType())
	}
	if task.GetChannelName() != "city_reels" {
		t.Errorf("Unexpected channel: %s", task.GetChannelName())
	}
	if task.GetMaxRetries() != DefaultMaxRetries {
		t.Errorf("Unexpected max retries: %d", task.GetMaxRetries())
	}
	if task.GetID() == "" {
		t.Error("Expected a non-empty id")
	}

	other := NewTask(TaskTypeProcessCity, "city_reels")
	if task.GetID() == other.GetID() {
		t.Error("Task ids must be unique")
	}
}

func TestTask_Retry(t *testing.T) {
	task := NewTask(TaskTypeRefreshToken, "")

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Retries must be exhausted after the maximum")
	}
}

func TestTask_Duration(t *testing.T) {
	task := NewTask(TaskTypeProcessCity, "city_reels")

	if task.GetDuration() != 0 {
		t.Error("Duration before start must be zero")
	}

	task.Start()
	time.Sleep(time.Millisecond)
	if task.GetDuration() <= 0 {
		t.Error("Duration after start must be positive")
	}
}

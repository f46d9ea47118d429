package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/city-reels/app/publisher"
)

// RefreshTokenTask exchanges the Instagram access token for a fresh
// long-lived one before the current one expires.
type RefreshTokenTask struct {
	Task
	publisher Publisher
}

func NewRefreshTokenTask(pub Publisher) *RefreshTokenTask {
	return &RefreshTokenTask{
		Task:      NewTask(TaskTypeRefreshToken, ""),
		publisher: pub,
	}
}

func (t *RefreshTokenTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	token, err := t.publisher.RefreshToken(ctx)
	if err != nil {
		if errors.Is(err, publisher.ErrMissingCredentials) {
			slog.Warn("Token refresh skipped, credentials not configured")
			return nil
		}
		return fmt.Errorf("failed to refresh access token: %w", err)
	}

	slog.Info("Task completed", "type", t.GetType(), "duration", t.GetDuration(), "token_length", len(token))
	return nil
}

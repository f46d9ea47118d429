package database

import (
	"time"
)

const (
	StatusPending   = "pending"
	StatusPublished = "published"
	StatusRendered  = "rendered"
	StatusFailed    = "failed"
)

// Reel is one production run for a city.
type Reel struct {
	ID         int64
	Channel    string
	CityKey    string
	City       string
	Country    string
	Title      string
	VideoPath  string
	PostID     string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

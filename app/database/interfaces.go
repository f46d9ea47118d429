package database

type ReelRepository interface {
	InsertReel(channel, cityKey, city, country string) (int64, error)
	MarkRendered(id int64, title, videoPath string) error
	MarkPublished(id int64, postID string) error
	MarkFailed(id int64, reason string) error

	GetRecentReels(limit int) ([]Reel, error)
	GetReelCount(channel string) (int, error)
	GetStats() (ReelStats, error)
}

// ReelStats aggregates run outcomes across all channels.
type ReelStats struct {
	Total     int
	Published int
	Rendered  int
	Failed    int
}

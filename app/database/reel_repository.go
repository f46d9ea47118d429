package database

import (
	"fmt"
	"time"
)

// ReelRepositoryImpl handles database operations for reel runs
type ReelRepositoryImpl struct {
	db *DB
}

// NewReelRepository creates a new reel repository
func NewReelRepository(db *DB) *ReelRepositoryImpl {
	return &ReelRepositoryImpl{db: db}
}

// InsertReel records the start of a production run for a city
func (r *ReelRepositoryImpl) InsertReel(channel, cityKey, city, country string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO reels (channel, city_key, city, country, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, channel, cityKey, city, country, StatusPending, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert reel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get reel id: %w", err)
	}
	return id, nil
}

// MarkRendered records a finished video that was not published
func (r *ReelRepositoryImpl) MarkRendered(id int64, title, videoPath string) error {
	_, err := r.db.Exec(`
		UPDATE reels
		SET title = ?, video_path = ?, status = ?, finished_at = ?
		WHERE id = ?
	`, title, videoPath, StatusRendered, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark reel rendered: %w", err)
	}
	return nil
}

// MarkPublished records a successful publish
func (r *ReelRepositoryImpl) MarkPublished(id int64, postID string) error {
	_, err := r.db.Exec(`
		UPDATE reels
		SET post_id = ?, status = ?, finished_at = ?
		WHERE id = ?
	`, postID, StatusPublished, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark reel published: %w", err)
	}
	return nil
}

// MarkFailed records a failed run with its reason
func (r *ReelRepositoryImpl) MarkFailed(id int64, reason string) error {
	_, err := r.db.Exec(`
		UPDATE reels
		SET error = ?, status = ?, finished_at = ?
		WHERE id = ?
	`, reason, StatusFailed, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark reel failed: %w", err)
	}
	return nil
}

// GetRecentReels returns the latest runs across all channels
func (r *ReelRepositoryImpl) GetRecentReels(limit int) ([]Reel, error) {
	rows, err := r.db.Query(`
		SELECT id, channel, city_key, city, country, title, video_path, post_id, status, error, started_at, finished_at
		FROM reels
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reels: %w", err)
	}
	defer rows.Close()

	var reels []Reel
	for rows.Next() {
		var reel Reel
		err := rows.Scan(&reel.ID, &reel.Channel, &reel.CityKey, &reel.City, &reel.Country,
			&reel.Title, &reel.VideoPath, &reel.PostID, &reel.Status, &reel.Error,
			&reel.StartedAt, &reel.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reel: %w", err)
		}
		reels = append(reels, reel)
	}

	return reels, rows.Err()
}

// GetReelCount returns the number of runs recorded for a channel
func (r *ReelRepositoryImpl) GetReelCount(channel string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM reels WHERE channel = ?`, channel).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reels: %w", err)
	}
	return count, nil
}

// GetStats returns aggregate run counts by outcome
func (r *ReelRepositoryImpl) GetStats() (ReelStats, error) {
	var stats ReelStats
	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM reels
	`, StatusPublished, StatusRendered, StatusFailed).Scan(&stats.Total, &stats.Published, &stats.Rendered, &stats.Failed)
	if err != nil {
		return ReelStats{}, fmt.Errorf("failed to query reel stats: %w", err)
	}
	return stats, nil
}

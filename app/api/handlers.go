package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/database"
	"github.com/lysyi3m/city-reels/app/tasks"
)

func NewHandler(configCache *channel.ConfigCache, reelRepo database.ReelRepository,
	scheduler tasks.TaskSchedulerInterface, publisher tasks.Publisher) *Handler {
	return &Handler{
		reelRepo:    reelRepo,
		configCache: configCache,
		scheduler:   scheduler,
		publisher:   publisher,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_channels"] = h.configCache.GetConfigCount()

	if stats, err := h.reelRepo.GetStats(); err == nil {
		health["reels"] = stats.Total
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.reelRepo.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     stats.Total,
		"published": stats.Published,
		"rendered":  stats.Rendered,
		"failed":    stats.Failed,
	})
}

func (h *Handler) GetReels(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	reels, err := h.reelRepo.GetRecentReels(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_reels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]map[string]interface{}, 0, len(reels))
	for _, reel := range reels {
		items = append(items, map[string]interface{}{
			"id":          reel.ID,
			"channel":     reel.Channel,
			"city":        reel.City,
			"country":     reel.Country,
			"title":       reel.Title,
			"post_id":     reel.PostID,
			"status":      reel.Status,
			"error":       reel.Error,
			"started_at":  reel.StartedAt,
			"finished_at": reel.FinishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"reels": items,
		"total": len(items),
	})
}

func (h *Handler) APIListChannels(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	channels := make([]map[string]interface{}, 0, len(configs))
	for _, config := range configs {
		info := map[string]interface{}{
			"name":          config.Name,
			"dataset":       config.Dataset,
			"enabled":       config.Settings.Enabled,
			"schedule":      config.Settings.Schedule,
			"images_needed": config.Settings.ImagesNeeded,
			"publish":       config.Settings.Publish,
		}

		if count, err := h.reelRepo.GetReelCount(config.Name); err == nil {
			info["reel_count"] = count
		}

		channels = append(channels, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"channels": channels,
		"total":    len(channels),
	})
}

func (h *Handler) APIGetChannelDetails(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing channel name parameter"})
		return
	}

	config, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Channel configuration not found", "channel", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel configuration not found"})
		return
	}

	details := map[string]interface{}{
		"name":              config.Name,
		"dataset":           config.Dataset,
		"enabled":           config.Settings.Enabled,
		"schedule":          config.Settings.Schedule,
		"images_needed":     config.Settings.ImagesNeeded,
		"summary_sentences": config.Settings.SummarySentences,
		"seconds_per_image": config.Settings.SecondsPerImage,
		"publish":           config.Settings.Publish,
		"caption_template":  config.Caption.Template,
		"hashtags":          config.Caption.Hashtags,
	}

	if count, err := h.reelRepo.GetReelCount(name); err == nil {
		details["reel_count"] = count
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIRunChannel(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing channel name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Channel configuration not found", "channel", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel configuration not found"})
		return
	}

	if err := h.scheduler.RunChannelNow(name); err != nil {
		slog.Error("Error enqueueing channel run", "channel", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue channel run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Channel run enqueued successfully",
		"channel": name,
	})
}

func (h *Handler) APIRefreshToken(c *gin.Context) {
	task := tasks.NewRefreshTokenTask(h.publisher)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing token refresh", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue token refresh",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token refresh enqueued successfully",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

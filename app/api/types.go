package api

import (
	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/database"
	"github.com/lysyi3m/city-reels/app/tasks"
)

type Handler struct {
	reelRepo    database.ReelRepository
	configCache *channel.ConfigCache
	scheduler   tasks.TaskSchedulerInterface
	publisher   tasks.Publisher
}

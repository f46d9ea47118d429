package channel

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type ConfigCache struct {
	channelsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(channelsDir string) *ConfigCache {
	return &ConfigCache{
		channelsDir: channelsDir,
		cache:       make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.channelsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.channelsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive channel name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		channelName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(channelName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "channel", channelName, "enabled", config.Settings.Enabled, "schedule", config.Settings.Schedule)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(channelName string) (*Config, error) {
	configFile := cc.getConfigFilePath(channelName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set channel name from parameter
	config.Name = channelName

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(channelName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[channelName]
	if !ok {
		return nil, fmt.Errorf("channel config with name '%s' not found", channelName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.Schedule == "" {
		config.Settings.Schedule = "@daily"
	}
	if config.Settings.ImagesNeeded == 0 {
		config.Settings.ImagesNeeded = 5
	}
	if config.Settings.SummarySentences == 0 {
		config.Settings.SummarySentences = 3
	}
	if config.Settings.ChunkSize == 0 {
		config.Settings.ChunkSize = 200
	}
	if config.Settings.SecondsPerImage == 0 {
		config.Settings.SecondsPerImage = 3
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	requiredFields := map[string]string{
		"channel name": config.Name,
		"dataset path": config.Dataset,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	nonNegativeFields := map[string]int{
		"images needed":     config.Settings.ImagesNeeded,
		"summary sentences": config.Settings.SummarySentences,
		"chunk size":        config.Settings.ChunkSize,
		"seconds per image": config.Settings.SecondsPerImage,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if _, err := scheduleParser.Parse(config.Settings.Schedule); err != nil {
		return fmt.Errorf("invalid schedule '%s': %w", config.Settings.Schedule, err)
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(channelName string) string {
	return filepath.Join(cc.channelsDir, channelName+".yml")
}

// ParseSchedule parses a channel cron expression. Descriptors like
// "@daily" are accepted.
func ParseSchedule(expr string) (cron.Schedule, error) {
	return scheduleParser.Parse(expr)
}

package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage paths
	ChannelsDir string `long:"channels-dir" env:"CHANNELS_DIR" default:"./channels" description:"Directory containing channel configuration files"`
	DataDir     string `long:"data-dir" env:"DATA_DIR" default:"./data/cities" description:"Directory for per-city artifacts (images, wiki data, videos)"`
	CacheDir    string `long:"cache-dir" env:"CACHE_DIR" default:"./cache/queries" description:"Directory for per-query image search cache files"`
	PostedFile  string `long:"posted-file" env:"POSTED_FILE" default:"./data/posted.jsonl" description:"Append-only log of posted cities"`
	DBPath      string `long:"db-path" env:"DB_PATH" default:"./data/city-reels.db" description:"SQLite database path for reel run history"`

	// Image provider credentials
	PexelsAPIKey   string `long:"pexels-api-key" env:"PEXELS_API_KEY" description:"Pexels API key"`
	UnsplashAPIKey string `long:"unsplash-api-key" env:"UNSPLASH_API_KEY" description:"Unsplash API access key"`
	PixabayAPIKey  string `long:"pixabay-api-key" env:"PIXABAY_API_KEY" description:"Pixabay API key"`

	// Publisher credentials
	IGAccountID   string `long:"ig-account-id" env:"IG_ACCOUNT_ID" description:"Instagram business account ID"`
	IGAccessToken string `long:"ig-access-token" env:"IG_ACCESS_TOKEN" description:"Instagram Graph API access token"`
	IGAppID       string `long:"ig-app-id" env:"IG_APP_ID" description:"Facebook app ID (token refresh)"`
	IGAppSecret   string `long:"ig-app-secret" env:"IG_APP_SECRET" description:"Facebook app secret (token refresh)"`

	// Optional shared query cache
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for a shared query cache (optional, file cache is used when unset)"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for reel processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	RequestTimeout    int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"10" description:"Per-request timeout for outbound HTTP calls in seconds"`
	RetryBackoff      int    `long:"retry-backoff" env:"RETRY_BACKOFF" default:"10" description:"Backoff in seconds after a provider rate-limit response"`
	FFmpegPath        string `long:"ffmpeg-path" env:"FFMPEG_PATH" default:"ffmpeg" description:"Path to the ffmpeg binary"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"City Reels/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ChannelsDir:       raw.ChannelsDir,
		DataDir:           raw.DataDir,
		CacheDir:          raw.CacheDir,
		PostedFile:        raw.PostedFile,
		DBPath:            raw.DBPath,
		PexelsAPIKey:      raw.PexelsAPIKey,
		UnsplashAPIKey:    raw.UnsplashAPIKey,
		PixabayAPIKey:     raw.PixabayAPIKey,
		IGAccountID:       raw.IGAccountID,
		IGAccessToken:     raw.IGAccessToken,
		IGAppID:           raw.IGAppID,
		IGAppSecret:       raw.IGAppSecret,
		RedisAddr:         raw.RedisAddr,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		RequestTimeout:    raw.RequestTimeout,
		RetryBackoff:      raw.RetryBackoff,
		FFmpegPath:        raw.FFmpegPath,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lysyi3m/city-reels/app/api"
	"github.com/lysyi3m/city-reels/app/cfg"
	"github.com/lysyi3m/city-reels/app/channel"
	"github.com/lysyi3m/city-reels/app/city"
	"github.com/lysyi3m/city-reels/app/database"
	"github.com/lysyi3m/city-reels/app/images"
	"github.com/lysyi3m/city-reels/app/publisher"
	"github.com/lysyi3m/city-reels/app/tasks"
	"github.com/lysyi3m/city-reels/app/video"
	"github.com/lysyi3m/city-reels/app/wiki"
)

func main() {
	// .env is optional, flags and the environment win
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting City Reels", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	configCache := channel.NewConfigCache(appCfg.ChannelsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load channel configurations", "dir", appCfg.ChannelsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Channel configurations loaded", "count", configCache.GetConfigCount())

	requestTimeout := time.Duration(appCfg.RequestTimeout) * time.Second
	retryBackoff := time.Duration(appCfg.RetryBackoff) * time.Second
	httpClient := &http.Client{Timeout: requestTimeout}

	var providers []images.Provider
	if appCfg.PexelsAPIKey != "" {
		providers = append(providers, images.NewPexelsProvider(appCfg.PexelsAPIKey, httpClient, appCfg.UserAgent))
	}
	if appCfg.UnsplashAPIKey != "" {
		providers = append(providers, images.NewUnsplashProvider(appCfg.UnsplashAPIKey, httpClient, appCfg.UserAgent))
	}
	if appCfg.PixabayAPIKey != "" {
		providers = append(providers, images.NewPixabayProvider(appCfg.PixabayAPIKey, httpClient, appCfg.UserAgent))
	}
	if len(providers) == 0 {
		slog.Warn("No image provider API keys configured, image fetching will fail")
	}

	var queryCache images.QueryCache
	if appCfg.RedisAddr != "" {
		redisCache, err := images.NewRedisCache(appCfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		queryCache = redisCache
		slog.Info("Using redis query cache", "addr", appCfg.RedisAddr)
	} else {
		queryCache = images.NewFileCache(appCfg.CacheDir)
		slog.Info("Using file query cache", "dir", appCfg.CacheDir)
	}

	imageFetcher := images.NewFetcher(providers, queryCache, requestTimeout, retryBackoff)
	downloader := images.NewDownloader(httpClient, appCfg.UserAgent, requestTimeout)

	wikiClient := wiki.NewClient(httpClient, appCfg.UserAgent)
	wikiFetcher := wiki.NewFetcher(wikiClient, httpClient, appCfg.UserAgent, requestTimeout)

	builder := video.NewFFmpegBuilder(appCfg.FFmpegPath)
	pub := publisher.New(appCfg.IGAccountID, appCfg.IGAccessToken, appCfg.IGAppID, appCfg.IGAppSecret,
		httpClient, appCfg.UserAgent)

	posted := city.NewPostedStore(appCfg.PostedFile)
	reelRepo := database.NewReelRepository(db)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, reelRepo, posted, wikiFetcher, imageFetcher,
		downloader, builder, pub)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(configCache, reelRepo, scheduler, pub)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

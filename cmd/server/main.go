package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	h "github.com/veranemoloko/magnet-dispatch/internal/api/http"
	cfgpkg "github.com/veranemoloko/magnet-dispatch/internal/config"
	"github.com/veranemoloko/magnet-dispatch/internal/probe"
	"github.com/veranemoloko/magnet-dispatch/internal/qbittorrent"
	"github.com/veranemoloko/magnet-dispatch/internal/resolve"
	"github.com/veranemoloko/magnet-dispatch/internal/service"
	"github.com/veranemoloko/magnet-dispatch/internal/storage"
	"github.com/veranemoloko/magnet-dispatch/internal/ytdlp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	logger := slog.Default()
	logger.Info("configuration loaded successfully")

	jobs, err := storage.NewJobStore(cfg.JobLogPath)
	if err != nil {
		logger.Error("failed to initialize job store", "error", err)
		os.Exit(1)
	}
	defer jobs.Close()

	submissions, err := storage.NewSubmissionLog(cfg.SubmissionLogPath)
	if err != nil {
		logger.Error("failed to initialize submission log", "error", err)
		os.Exit(1)
	}
	defer submissions.Close()

	var torrents service.TorrentClient
	if cfg.QBEnabled {
		session := qbittorrent.NewSession(cfg.QBURL, cfg.QBUser, cfg.QBPass, cfg.QBTimeout, logger)
		torrents = qbittorrent.NewClient(cfg.QBURL, cfg.QBCategory, cfg.QBTimeout, session, logger)
		logger.Info("torrent dispatch enabled", "url", cfg.QBURL, "category", cfg.QBCategory)
	} else {
		logger.Info("torrent dispatch disabled")
	}

	var downloader service.VideoDownloader
	if cfg.DownloaderEnabled {
		runner, err := ytdlp.NewRunner(cfg.DownloaderCommand, cfg.DownloadDir, cfg.DownloadFormat, cfg.DownloadTimeout, logger)
		if err != nil {
			logger.Error("failed to initialize downloader", "error", err)
			os.Exit(1)
		}
		downloader = runner
		logger.Info("video dispatch enabled", "command", cfg.DownloaderCommand, "output_dir", cfg.DownloadDir)
	} else {
		logger.Info("video dispatch disabled")
	}

	resolver := resolve.New(cfg.ResolveTimeout, cfg.ResolveMaxBytes, logger)
	prober := probe.New(cfg.ProbeEnabled, cfg.ProbeTimeout, logger)

	pipeline := service.New(cfg, torrents, downloader, resolver, prober, jobs, submissions, logger)

	// A video dispatch runs to completion within the request, so the
	// write timeout must cover the downloader's own deadline.
	writeTimeout := cfg.HTTPTimeout
	if cfg.DownloaderEnabled && cfg.DownloadTimeout+cfg.HTTPTimeout > writeTimeout {
		writeTimeout = cfg.DownloadTimeout + cfg.HTTPTimeout
	}

	router := h.NewRouter(pipeline, logger)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	} else {
		logger.Info("server stopped gracefully")
	}
}

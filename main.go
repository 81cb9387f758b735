package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"niftypulse/config"
	"niftypulse/internal/analysis"
	"niftypulse/internal/archive"
	"niftypulse/internal/catalog"
	"niftypulse/internal/dashboard"
	"niftypulse/internal/market"
	"niftypulse/internal/metrics"
	"niftypulse/internal/oracle"
	"niftypulse/logger"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service": cfg.Niftypulse.Name,
		"version": cfg.Niftypulse.Version,
	}).Info("starting niftypulse")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Address)
		if cfg.Metrics.CloudWatchNamespace != "" {
			logger.InitCloudWatch(cfg.Archive.S3.Region, cfg.Metrics.CloudWatchNamespace)
		}
	}

	securities, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.WithError(err).Error("failed to load security catalog")
		os.Exit(1)
	}
	log.WithComponent("main").WithFields(logger.Fields{"securities": len(securities)}).Info("security catalog loaded")

	var fetcher market.QuoteFetcher
	var analyzer *analysis.Analyzer
	if cfg.Oracle.Enabled {
		source := oracle.NewGeminiSource(cfg.Oracle.APIKey)
		fetcher = oracle.NewFetcher(cfg.Oracle, oracle.NewTextQuoteProvider(source))
		if cfg.Analysis.Enabled {
			analyzer = analysis.NewAnalyzer(analysis.NewTextProvider(source), cfg.Analysis.Timeout, nil)
		}
	} else {
		log.WithComponent("main").Info("price oracle disabled; running fully simulated")
	}

	scheduler := market.NewScheduler(cfg, securities, fetcher, analyzer, nil, nil)
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start market scheduler")
		os.Exit(1)
	}

	dashboardServer, err := dashboard.NewServer(cfg.Dashboard, log, scheduler)
	if err != nil {
		log.WithError(err).Error("failed to create dashboard server")
		os.Exit(1)
	}
	dashboardErr := make(chan error, 1)
	if dashboardServer != nil {
		go func() {
			dashboardErr <- dashboardServer.Run(ctx, cfg.Niftypulse.Name)
		}()
		log.WithComponent("main").WithFields(logger.Fields{"address": dashboardServer.Address()}).Info("dashboard started")
	} else {
		log.WithComponent("main").Info("dashboard disabled")
	}

	archiveWriter, err := archive.NewWriter(cfg, scheduler)
	if err != nil {
		log.WithError(err).Error("failed to create archive writer")
		os.Exit(1)
	}
	if archiveWriter != nil {
		if err := archiveWriter.Start(ctx); err != nil {
			log.WithError(err).Error("failed to start archive writer")
			os.Exit(1)
		}
	} else {
		log.WithComponent("main").Info("snapshot archiving disabled")
	}

	log.Info("all components started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	case err := <-dashboardErr:
		if err != nil {
			log.WithError(err).Error("dashboard server exited")
		}
	}

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		if archiveWriter != nil {
			log.Info("stopping archive writer")
			archiveWriter.Stop()
		}
		log.Info("stopping market scheduler")
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("niftypulse stopped")
}

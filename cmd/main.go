package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"tcu-monitor/internal/api"
	"tcu-monitor/internal/config"
	"tcu-monitor/internal/db"
	"tcu-monitor/internal/kafka"
	"tcu-monitor/internal/logging"
	"tcu-monitor/internal/logstream"
	"tcu-monitor/internal/monitor"
	"tcu-monitor/internal/mqtt"
	"tcu-monitor/internal/notifier"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Config load failed:", err)
	}

	// Initialize logger
	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatal("Logger init failed:", err)
	}

	// Report/communication log streams
	streams, err := logstream.New(cfg.Logging.Dir, cfg.Monitor.ReportTimezone)
	if err != nil {
		logger.Errorf("Log stream init failed: %v", err)
		log.Fatal("Log stream init failed:", err)
	}
	defer streams.Close()

	// Notification channel
	var sender notifier.Sender
	if cfg.Telegram.BotToken != "" {
		sender, err = notifier.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.RatePerMinute, logger)
		if err != nil {
			logger.Errorf("Telegram init failed: %v", err)
			log.Fatal("Telegram init failed:", err)
		}
	} else {
		logger.Warnf("No TELEGRAM_BOT_TOKEN set, notifications disabled")
	}
	svc := notifier.New(cfg, logger, sender, streams)

	// Optional dispatch archive
	var archive *db.DB
	if cfg.DB.DSN != "" {
		archive, err = db.New(cfg.DB.DSN)
		if err != nil {
			logger.Errorf("DB connect failed, dispatch archive disabled: %v", err)
			archive = nil
		} else {
			svc.SetArchive(archive)
			defer archive.Close()
		}
	}

	var wg sync.WaitGroup
	svc.Start(&wg)

	// Monitoring engine
	engine := monitor.NewEngine(cfg, logger, streams, svc)
	hub := api.NewHub(logger)
	engine.SetBroadcaster(hub)

	// Optional event export
	if cfg.Kafka.Broker != "" {
		publisher := kafka.NewPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
		engine.SetPublisher(publisher)
		defer publisher.Close()
	}

	engine.Start(&wg)

	// Connect MQTT after the collaborators are up
	consumer := mqtt.NewConsumer(cfg, engine, logger)
	if err := consumer.Start(); err != nil {
		logger.Errorf("MQTT connect failed: %v", err)
		log.Fatal("MQTT connect failed:", err)
	}

	engine.NotifyStartup()

	// Periodic evaluations
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := monitor.NewScheduler(engine, logger)
	scheduler.Start(ctx, &wg)

	// Read-only status API
	handler := api.NewHandler(engine, archive, logger)
	router := api.NewRouter(handler, hub, logger)
	go func() {
		logger.Infof("API started on %s", cfg.API.Port)
		if err := router.Run(cfg.API.Port); err != nil {
			logger.Errorf("API run failed: %v", err)
		}
	}()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	logger.Infof("Shutting down...")
	cancel()
	consumer.Close()
	engine.Stop()
	svc.Stop()
	wg.Wait()
	logger.Infof("Service stopped")
}

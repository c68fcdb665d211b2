package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/follower/domain/follower"
	"github.com/open-teleop/follower/pkg/api"
	"github.com/open-teleop/follower/pkg/config"
	customlog "github.com/open-teleop/follower/pkg/log"
	"github.com/open-teleop/follower/pkg/zeromq"
)

func main() {
	configDir := flag.String("config-dir", "config", "Directory containing "+config.BootstrapFileName)
	flag.Parse()

	cfg, err := config.LoadBootstrapConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Initialize domain services
	followerService, err := follower.NewFollowerService(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create follower service: %v", err)
	}

	var publisher *zeromq.Publisher
	if cfg.ZeroMQ.PublishBindAddress != "" {
		publisher, err = zeromq.NewPublisher(cfg.ZeroMQ.PublishBindAddress, cfg.ZeroMQ.Topic, logger)
		if err != nil {
			logger.Fatalf("Failed to start orientation publisher: %v", err)
		}
		followerService.AddObserver("zeromq", publisher.PublishUpdate)
	}

	var app *fiber.App
	if cfg.Server.HTTPPort > 0 {
		hub := api.NewHub(logger)
		followerService.AddObserver("websocket", hub.Broadcast)

		app = api.NewApp(os.Stdout)
		api.RegisterRoutes(app, followerService, hub, cfg, logger)

		// Start server in a goroutine
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
			logger.Infof("Server starting on %s", addr)
			if err := app.Listen(addr); err != nil {
				logger.Errorf("HTTP server stopped: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := followerService.Start(ctx); err != nil {
		logger.Fatalf("Failed to start follower service: %v", err)
	}

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down follower...")

	if app != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Errorf("Server forced to shutdown: %v", err)
		}
	}

	cancel()
	followerService.Stop()
	if publisher != nil {
		publisher.Close()
	}

	logger.Infof("Follower exited properly")
}

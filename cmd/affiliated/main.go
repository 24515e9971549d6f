// Package main is the entrypoint of the affiliate service. It loads the
// configuration, assembles the application and runs the HTTP server and the
// scheduler until SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"docsafe.com.br/affiliate-service/internal/app"
	"docsafe.com.br/affiliate-service/internal/config"
)

func main() {
	setupLogging()

	// .env is a local-development convenience; in production everything
	// comes from real environment variables.
	if err := godotenv.Load(); err == nil {
		log.Debug(".env loaded")
	}

	log.Info("=== affiliate service starting ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("could not load configuration")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("could not initialize application")
	}
	defer application.DB.Close()

	if err := application.Scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("could not start scheduler")
	}
	defer application.Scheduler.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Server.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("=== affiliate service ready ===")

	select {
	case sig := <-quit:
		log.Infof("received %s, shutting down...", sig)
		cancel()
		<-serverErr
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}

	log.Info("=== affiliate service stopped ===")
}

// setupLogging configures the log format before anything else runs.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

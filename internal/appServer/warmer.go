package appServer

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/image-transform/config"
	"github.com/ds124wfegd/image-transform/internal/pkg/kafka"
	"github.com/sirupsen/logrus"
)

// RunWarmer renders renditions requested on the warm topic until SIGINT or
// SIGTERM.
func RunWarmer(cfg *config.Config) {
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize dependencies: %s", err.Error())
	}
	defer deps.Close()

	warmer := kafka.NewWarmer(cfg.Kafka.Brokers, cfg.Kafka.WarmTopic, cfg.Kafka.GroupID, deps.Service.Warm)

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Kafka.Brokers,
		"topic":   cfg.Kafka.WarmTopic,
		"group":   cfg.Kafka.GroupID,
	}).Info("Warmer Started")

	if err := warmer.Run(ctx); err != nil {
		logrus.Errorf("warmer stopped with error: %s", err.Error())
	}
}

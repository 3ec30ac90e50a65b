package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"accounts/api/internal/cache"
	"accounts/api/internal/config"
	"accounts/api/internal/log"
	"accounts/api/internal/notify"
	"accounts/api/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "accounts-mailer")

	if err := cfg.ValidateMailer(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	client, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	var sender notify.Sender
	if cfg.Mail.SMTP.Host != "" {
		smtpSender, err := notify.NewSMTPSender(cfg.Mail.SMTP)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init smtp client")
		}
		sender = smtpSender
	} else {
		logger.Warn().Msg("smtp host not set, messages will only be logged")
		sender = notify.NewLogSender(logger)
	}

	consumer := queue.NewConsumer(
		client,
		queue.ConsumerConfig{
			Stream:        cfg.Mail.Stream,
			Group:         cfg.Mail.Group,
			Name:          cfg.Mail.Consumer,
			ClaimInterval: cfg.Mail.ClaimInterval,
			MaxDeliveries: cfg.Mail.MaxDeliveries,
		},
		logger,
		queue.NewDeliveryHandler(sender, logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create consumer group")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/fitbooking/config"
	"github.com/Domenick1991/fitbooking/internal/email"
	"github.com/Domenick1991/fitbooking/internal/kafka"
	"github.com/Domenick1991/fitbooking/internal/logger"
	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log, "fitbooking-worker")
	if !cfg.Kafka.Enabled() {
		log.Fatal().Msg("kafka.brokers is empty, nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(log)

	log.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.NotificationsTopic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("worker started")

	if err := consumer.Consume(ctx, handle(sender, log)); err != nil {
		log.Error().Err(err).Msg("consumer stopped")
		return
	}
	log.Info().Msg("worker stopped")
}

// handle skips messages that cannot be decoded or rendered so one bad
// payload cannot block the partition.
func handle(sender *email.Sender, log zerolog.Logger) func(context.Context, kafkaGo.Message) error {
	return func(ctx context.Context, msg kafkaGo.Message) error {
		var event kafka.BookingEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("decode event error")
			return nil
		}
		if err := sender.Send(ctx, event); err != nil {
			log.Warn().Err(err).Str("booking_id", event.BookingID).Msg("skip notification")
		}
		return nil
	}
}

package infra

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/log"
)

func NewBrokerWriter(c context.Context, cfg config.Broker) *kafka.Writer {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewBrokerWriter").
		Str(log.KeyProcess, "initializing kafka writer").
		Logger()

	logger.Info().Msg("initializing kafka writer")
	writer := &kafka.Writer{
		Addr:     kafka.TCP(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info().Msg("initialized kafka writer")

	return writer
}

func NewBrokerReader(c context.Context, cfg config.Broker) *kafka.Reader {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main NewBrokerReader").
		Str(log.KeyProcess, "initializing kafka reader").
		Logger()

	logger.Info().Msg("initializing kafka reader")
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Topic:   cfg.Topic,
		GroupID: cfg.Group,
	})
	logger.Info().Msg("initialized kafka reader")

	return reader
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/infra"
	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/notification"
	"github.com/calegray/storefront/internal/otel"
)

func runNotifier(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main runNotifier").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, common.AppNotifier)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := otel.InitOtelSdk(c, common.AppNotifier, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing broker reader").Logger()
	logger.Info().Msg("initializing broker reader")
	c = logger.WithContext(c)
	reader := infra.NewBrokerReader(c, cfg.Broker)
	logger.Info().Msg("initialized broker reader")

	logger = logger.With().Str(log.KeyProcess, "consuming order events").Logger()
	logger.Info().Msg("consuming order events")
	c = logger.WithContext(c)
	worker := notification.NewWorker(reader)
	if err := worker.Run(c); err != nil {
		err = fmt.Errorf("failed consuming order events with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}

	logger = logger.With().Str(log.KeyProcess, "shutdown notifier").Logger()
	logger.Info().Msg("shutting down notifier")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shutdownCtx = logger.WithContext(shutdownCtx)

	if err := reader.Close(); err != nil {
		err = fmt.Errorf("failed closing kafka reader with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	if err := otel.ShutdownOtel(shutdownCtx, shutdownFuncs); err != nil {
		err = fmt.Errorf("failed shutting down otel with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("shutdown notifier")
}

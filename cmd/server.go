package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	cartController "github.com/calegray/storefront/internal/cart/controller"
	cartService "github.com/calegray/storefront/internal/cart/service"
	catalogController "github.com/calegray/storefront/internal/catalog/controller"
	catalogService "github.com/calegray/storefront/internal/catalog/service"
	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/config"
	"github.com/calegray/storefront/internal/docstore"
	"github.com/calegray/storefront/internal/infra"
	"github.com/calegray/storefront/internal/log"
	"github.com/calegray/storefront/internal/middleware"
	orderController "github.com/calegray/storefront/internal/order/controller"
	orderService "github.com/calegray/storefront/internal/order/service"
	"github.com/calegray/storefront/internal/otel"
	"github.com/calegray/storefront/internal/payment"
	userController "github.com/calegray/storefront/internal/user/controller"
	userService "github.com/calegray/storefront/internal/user/service"
)

func runServer(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main runServer").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, common.AppStorefront)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	shutdownFuncs, err := otel.InitOtelSdk(c, common.AppStorefront, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing stores").Logger()
	logger.Info().Msg("initializing stores")
	c = logger.WithContext(c)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer pool.Close()
	cache := infra.NewCacheClient(c, cfg.Cache)
	writer := infra.NewBrokerWriter(c, cfg.Broker)
	durable := docstore.NewPostgresStore(pool)
	guests := docstore.NewMemoryStore()
	logger.Info().Msg("initialized stores")

	logger = logger.With().Str(log.KeyProcess, "initializing services").Logger()
	logger.Info().Msg("initializing services")
	carts := cartService.NewCartService(durable, guests, cache)
	catalog := catalogService.NewCatalogService(durable, cache)
	orders := orderService.NewOrderService(durable, carts, payment.NewClient(cfg.Payment), writer)
	users := userService.NewUserService(durable, cfg.Application)
	logger.Info().Msg("initialized services")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(common.AppStorefront),
		middleware.Logging,
		middleware.RecoverPanic,
		middleware.AuthOptional(cfg.Application),
	)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	cartController.AttachCartController(router, &carts)
	catalogController.AttachCatalogController(router, &catalog, cfg.Application)
	orderController.AttachOrderController(router, &orders, cfg.Application)
	userController.AttachUserController(router, &users, cfg.Application)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(log.KeyProcess, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	server := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      router,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	go func() {
		logger := logger.With().Str(log.KeyProcess, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("error=%w occured while server is running", err)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("received interruption signal shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shutdownCtx = logger.WithContext(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		err = fmt.Errorf("failed shutting down server with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	if err := writer.Close(); err != nil {
		err = fmt.Errorf("failed closing kafka writer with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	if err := cache.Close(); err != nil {
		err = fmt.Errorf("failed closing cache client with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	if err := otel.ShutdownOtel(shutdownCtx, shutdownFuncs); err != nil {
		err = fmt.Errorf("failed shutting down otel with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("shutdown server")
}

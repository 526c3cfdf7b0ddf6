package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calegray/storefront/internal/common"
	"github.com/calegray/storefront/internal/log"
)

func Start() {
	logger := log.Get(fmt.Sprintf("/var/log/%s.log", common.AppStorefront), os.Getenv("APP_ENV")).
		With().
		Str(log.KeyAppName, common.AppStorefront).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "storefront"}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "server",
			Short: "Run the storefront HTTP API",
			Run: func(cmd *cobra.Command, args []string) {
				runServer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "notifier",
			Short: "Run the order notification worker",
			Run: func(cmd *cobra.Command, args []string) {
				runNotifier(cmd.Context())
			},
		},
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}

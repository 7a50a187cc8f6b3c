package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/artvista/cartsync/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/cartsync.log").
		With().
		Str(log.KeyAppName, "cartsync").
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "cartsync"}
	commands := []*cobra.Command{
		{
			Use:   "server",
			Short: "Run the in-memory cart backend",
			Run: func(cmd *cobra.Command, args []string) {
				runServer(cmd.Context())
			},
		},
		{
			Use:   "demo",
			Short: "Run a scripted guest-to-login cart flow against the backend",
			Run: func(cmd *cobra.Command, args []string) {
				runDemo(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}

package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/traveloop/traveloop/internal/config"
	"github.com/traveloop/traveloop/internal/daemon"
	"github.com/traveloop/traveloop/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the Traveloop web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err //nolint:wrapcheck
			}

			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log) //nolint:wrapcheck
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := daemon.New(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			go func() {
				if err := d.Start(); err != nil {
					log.Fatal().Err(err).Msg("web service stopped")
				}
			}()

			log.Info().
				Str("mode", cfg.Backend.Mode).
				Int("port", cfg.Webserver.Port).
				Bool("dev", cfg.DevMode).
				Msg("traveloop started")

			d.WaitShutdown()

			return nil
		},
	}
)

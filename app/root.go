// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/traveloop/traveloop/internal/config"
)

var (
	configPath string // directory of main.toml
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "traveloop",
	Short: "Traveloop is the web front of the Traveloop travel planner",
	Long: `Traveloop serves the sign-in and sign-up pages, the dashboard and the JSON API
of the travel planner. Identity and data come from the hosted backend or,
in local mode, from the application database.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory of main.toml")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

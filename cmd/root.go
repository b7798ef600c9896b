// Package cmd wires the CLI surface of the crawler: the root command,
// configuration bootstrap and the crawl subcommand.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/logging"
	"github.com/alkoparse/alkoteka-crawler/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "alkoparse",
	Short: "Crawler for the alkoteka.com product catalog",
	Long: `alkoparse walks the alkoteka.com web catalog API for a chosen city,
follows category pagination, fetches every product detail and writes
normalized catalog items to the configured sink.`,
}

// Execute is the main entry point.
func Execute() {
	// Initialize the logger once at the very start.
	logging.InitLogger(viper.GetBool("logging.development"))

	if err := rootCmd.Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().Bool("dev", false, "enable human-readable development logging")
	_ = viper.BindPFlag("logging.development", rootCmd.PersistentFlags().Lookup("dev"))
}

func initConfig() {
	config.InitConfig()
	// Re-initialize so a file- or flag-sourced logging mode takes effect.
	logging.InitLogger(viper.GetBool("logging.development"))
}

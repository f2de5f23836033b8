package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "petriflow",
	Short: "Run and inspect Petri net workflows",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional; flags and real env vars win.
		_ = godotenv.Load()
		if os.Getenv("PETRIFLOW_DEBUG") != "" {
			debug = true
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging")
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "carteira",
	Short: "Carteira Inteligente - weekly B3 portfolio reports",
	Long: `Carteira Inteligente collects B3 market data, scores news sentiment,
generates an AI-written analysis and delivers the report as a PDF
over Telegram and email.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	// Credentials usually live in a local .env during development.
	godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

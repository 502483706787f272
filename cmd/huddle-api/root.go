package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	port    string
)

// rootCmd runs the API server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "huddle-api",
	Short: "Huddle thread API",
	Long: `huddle-api serves the Huddle thread API.

A thread starts as a draft, gets a proposal from the planning agent
(a meeting slot or an email draft), and runs only once its owner
approves it.

Commands:
  serve    Start the HTTP server (default)
  version  Show version information`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (HUDDLE_* env vars override it)")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "HTTP port (overrides config)")
}

// Package main is the entry point for the artvec CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metgalaxy/artvec/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artvec",
		Short: "Offline pipelines for artwork image search",
		Long: `Artvec runs the offline batch pipelines behind artwork image search:
embedding generation for artworks without embeddings, and the PCA basis
build consumed by the embedding visualization.`,
	}

	cmd.AddCommand(embedCmd())
	cmd.AddCommand(basisCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from a .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

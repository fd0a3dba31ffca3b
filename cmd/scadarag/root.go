package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scadarag/internal/config"
	"scadarag/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "scadarag",
	Short: "Local lexical search over SCADA vendor documents",
	Long: `scadarag indexes PDF, office, spreadsheet and text documents in memory
and answers free-text questions with TF-IDF ranked passages. It can run as an
interactive search screen, a one-shot query, an HTTP service for the comparison
dashboard or an MCP tool server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// a missing .env is normal outside development
		_ = godotenv.Load()
		return nil
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default ./config.yaml or ~/.config/scadarag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Version = Version
}

// setup loads the configuration and installs the global logger.
func setup() (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if cfgFile == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	logging.SetLogger(log)
	logging.Debug("config loaded", "chunker", cfg.Chunker.Type, "embedder", cfg.Embedder.Type)
	return cfg, nil
}

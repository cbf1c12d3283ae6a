package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Labs64/labs64.io-auditflow/cli/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "auditflow",
	Short: "AuditFlow CLI",
	Long: `auditflow is the command-line interface for the AuditFlow dispatch services.

Send audit events through transformers, dispatch them to sinks, list the
available plugins, and seed the services with generated test events.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.auditflow/config.yaml)")
	rootCmd.PersistentFlags().String("transformer-url", "", "transformer service URL (overrides config)")
	rootCmd.PersistentFlags().String("sink-url", "", "sink service URL (overrides config)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func transformerURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("transformer-url"); url != "" {
		return url
	}
	if cfg != nil && cfg.TransformerURL != "" {
		return cfg.TransformerURL
	}
	return config.Default().TransformerURL
}

func sinkURL(cmd *cobra.Command) string {
	if url, _ := cmd.Flags().GetString("sink-url"); url != "" {
		return url
	}
	if cfg != nil && cfg.SinkURL != "" {
		return cfg.SinkURL
	}
	return config.Default().SinkURL
}

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Labs64/labs64.io-auditflow/cli/internal/client"
	"github.com/Labs64/labs64.io-auditflow/cli/internal/seeder"
	"github.com/Labs64/labs64.io-auditflow/cli/pkg/output"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the services with generated audit events",
	Long: `Generate realistic audit events and dispatch them to a sink,
optionally running each event through a transformer first.`,
	Example: `  auditflow seed --count 50 --sink logging
  auditflow seed --count 10 --transformer audit_loki --sink loki --property service-url=http://loki:3100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		window, _ := cmd.Flags().GetDuration("window")
		seed, _ := cmd.Flags().GetInt64("seed")
		transformerID, _ := cmd.Flags().GetString("transformer")
		sinkID, _ := cmd.Flags().GetString("sink")

		props, err := parseProperties(cmd)
		if err != nil {
			return err
		}

		events := seeder.New(seed).Events(count, window)
		output.Info("Generated %d events over %s", len(events), window)

		var transformerClient *client.TransformerClient
		if transformerID != "" {
			transformerClient = client.NewTransformerClient(transformerURL(cmd))
		}
		sinkClient := client.NewSinkClient(sinkURL(cmd))

		var sent, failed int
		for _, event := range events {
			if transformerClient != nil {
				event, err = transformerClient.Transform(transformerID, event)
				if err != nil {
					output.Warn("transform failed: %v", err)
					failed++
					continue
				}
			}
			if _, err := sinkClient.Process(sinkID, event, props); err != nil {
				output.Warn("dispatch failed: %v", err)
				failed++
				continue
			}
			sent++
		}

		if failed > 0 {
			output.Warn("%d event(s) failed", failed)
		}
		if sent == 0 {
			return fmt.Errorf("no events were delivered")
		}
		output.Success("Delivered %d event(s) to sink '%s'", sent, sinkID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntP("count", "n", 10, "Number of events to generate")
	seedCmd.Flags().Duration("window", time.Hour, "Time window to spread events over")
	seedCmd.Flags().Int64("seed", 0, "Random seed (0 = derive from clock)")
	seedCmd.Flags().StringP("transformer", "t", "", "Transformer to run events through first")
	seedCmd.Flags().StringP("sink", "s", "logging", "Sink to dispatch events to")
	seedCmd.Flags().StringArrayP("property", "p", nil, "Sink property as key=value (repeatable)")
}

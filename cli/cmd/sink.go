package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Labs64/labs64.io-auditflow/cli/internal/client"
	"github.com/Labs64/labs64.io-auditflow/cli/pkg/output"
)

var sinkCmd = &cobra.Command{
	Use:   "sink <sinkId>",
	Short: "Dispatch an audit event to a sink",
	Long:  "Send an audit event to a destination sink with optional per-request properties",
	Example: `  auditflow sink logging --event '{"eventType":"login"}' --property format=text
  auditflow sink webhook --file event.json --property webhook-url=https://hooks.example.com/x`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := readEvent(cmd)
		if err != nil {
			return err
		}

		props, err := parseProperties(cmd)
		if err != nil {
			return err
		}

		sinkClient := client.NewSinkClient(sinkURL(cmd))
		resp, err := sinkClient.Process(args[0], event, props)
		if err != nil {
			return fmt.Errorf("failed to dispatch event: %w", err)
		}

		output.Success("%s", resp.Message)
		return output.JSON(resp.Result)
	},
}

func init() {
	rootCmd.AddCommand(sinkCmd)

	sinkCmd.Flags().StringP("event", "e", "", "Event JSON")
	sinkCmd.Flags().StringP("file", "f", "", "File containing event JSON")
	sinkCmd.Flags().StringArrayP("property", "p", nil, "Sink property as key=value (repeatable)")
}

func parseProperties(cmd *cobra.Command) (map[string]string, error) {
	pairs, _ := cmd.Flags().GetStringArray("property")
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid property %q, expected key=value", pair)
		}
		props[key] = value
	}
	return props, nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Labs64/labs64.io-auditflow/cli/internal/client"
	"github.com/Labs64/labs64.io-auditflow/cli/pkg/output"
)

var transformCmd = &cobra.Command{
	Use:   "transform <transformerId>",
	Short: "Transform an audit event",
	Long:  "Send an audit event through a transformer and print the transformed payload",
	Example: `  auditflow transform user --event '{"eventType":"order","user":{"firstName":"John"}}'
  auditflow transform audit_loki --file event.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		event, err := readEvent(cmd)
		if err != nil {
			return err
		}

		transformerClient := client.NewTransformerClient(transformerURL(cmd))
		result, err := transformerClient.Transform(args[0], event)
		if err != nil {
			return fmt.Errorf("failed to transform event: %w", err)
		}

		return output.JSON(result)
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)

	transformCmd.Flags().StringP("event", "e", "", "Event JSON")
	transformCmd.Flags().StringP("file", "f", "", "File containing event JSON")
}

// readEvent loads the event from --event or --file.
func readEvent(cmd *cobra.Command) (map[string]interface{}, error) {
	eventJSON, _ := cmd.Flags().GetString("event")
	file, _ := cmd.Flags().GetString("file")

	if eventJSON == "" && file == "" {
		return nil, fmt.Errorf("either --event or --file is required")
	}
	if eventJSON != "" && file != "" {
		return nil, fmt.Errorf("--event and --file are mutually exclusive")
	}

	raw := []byte(eventJSON)
	if file != "" {
		var err error
		raw, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read event file: %w", err)
		}
	}

	var event map[string]interface{}
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("invalid event JSON: %w", err)
	}
	return event, nil
}

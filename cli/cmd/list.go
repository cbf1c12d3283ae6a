package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Labs64/labs64.io-auditflow/cli/internal/client"
	"github.com/Labs64/labs64.io-auditflow/cli/pkg/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available plugins",
	Long:  "List the transformers and sinks the dispatch services expose",
}

var listTransformersCmd = &cobra.Command{
	Use:   "transformers",
	Short: "List available transformers",
	RunE: func(cmd *cobra.Command, args []string) error {
		transformerClient := client.NewTransformerClient(transformerURL(cmd))
		descriptors, err := transformerClient.ListTransformers()
		if err != nil {
			return fmt.Errorf("failed to list transformers: %w", err)
		}
		renderDescriptors(descriptors)
		return nil
	},
}

var listSinksCmd = &cobra.Command{
	Use:   "sinks",
	Short: "List available sinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		sinkClient := client.NewSinkClient(sinkURL(cmd))
		descriptors, err := sinkClient.ListSinks()
		if err != nil {
			return fmt.Errorf("failed to list sinks: %w", err)
		}
		renderDescriptors(descriptors)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listTransformersCmd)
	listCmd.AddCommand(listSinksCmd)
}

func renderDescriptors(descriptors []client.Descriptor) {
	table := output.NewTable([]string{"ID", "TYPE", "PATH"})
	for _, d := range descriptors {
		table.AddRow([]string{d.ID, d.Type, d.Path})
	}
	table.Render()
	output.Info("\n%d plugin(s)", len(descriptors))
}

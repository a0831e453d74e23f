package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/pkg/client"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Inspect a session's live preview",
}

var previewRefreshCmd = &cobra.Command{
	Use:   "refresh <session-id>",
	Short: "Rebuild the preview from the current project state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.RefreshPreview(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to refresh preview: %w", err)
		}

		fmt.Println("✓ Preview refreshed")
		return nil
	},
}

var previewDocCmd = &cobra.Command{
	Use:   "doc <session-id>",
	Short: "Print the instrumented preview document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		doc, err := c.PreviewDocument(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to fetch preview document: %w", err)
		}

		fmt.Print(doc)
		return nil
	},
}

var previewConsoleCmd = &cobra.Command{
	Use:   "console <session-id>",
	Short: "Print the preview's captured error and logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		state, err := c.Console(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get console state: %w", err)
		}

		fmt.Printf("Generation: %d\n", state.Generation)
		if state.Error != nil {
			fmt.Printf("Error: %s\n", state.Error.Message)
			if state.Error.Stack != "" {
				fmt.Println(state.Error.Stack)
			}
		}
		for _, line := range state.Logs {
			fmt.Printf("log: %s\n", line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.AddCommand(previewRefreshCmd)
	previewCmd.AddCommand(previewDocCmd)
	previewCmd.AddCommand(previewConsoleCmd)
}

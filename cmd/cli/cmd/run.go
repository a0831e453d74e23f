package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/pkg/client"
)

var runCmd = &cobra.Command{
	Use:   "run <session-id> <path>",
	Short: "Run a python file remotely",
	Long: `Submit a python file from the session's tree to the remote execution
service and print the transcript. This blocks until execution finishes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		// Remote runs poll until terminal; give them room.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		lines, err := c.Run(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to run file: %w", err)
		}

		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

var outputCmd = &cobra.Command{
	Use:   "output <session-id>",
	Short: "Print the last run's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		lines, err := c.Output(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get output: %w", err)
		}

		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(outputCmd)
}

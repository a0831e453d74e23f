package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/pkg/client"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Drive a generator stream into a session",
	Long: `Drive a code-generator stream into one file of a session. While the
stream is active the target file shows the streamed text and user edits
are rejected; end --commit persists the accumulated text into the tree.`,
}

var streamBeginCmd = &cobra.Command{
	Use:   "begin <session-id> <path>",
	Short: "Start a stream targeting one file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.BeginStream(ctx, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to begin stream: %w", err)
		}

		fmt.Printf("✓ Stream started: %s\n", args[1])
		return nil
	},
}

var streamChunkCmd = &cobra.Command{
	Use:   "chunk <session-id> <code>",
	Short: "Send the stream's full accumulated text",
	Long: `Send the generator's full accumulated text so far (not a delta).
Use - to read from stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		code := args[1]
		if code == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
			code = string(data)
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.StreamChunk(ctx, args[0], code); err != nil {
			return fmt.Errorf("failed to send chunk: %w", err)
		}
		return nil
	},
}

var streamEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End the active stream",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		commit, _ := cmd.Flags().GetBool("commit")

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.EndStream(ctx, args[0], commit); err != nil {
			return fmt.Errorf("failed to end stream: %w", err)
		}

		if commit {
			fmt.Println("✓ Stream committed")
		} else {
			fmt.Println("✓ Stream abandoned")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.AddCommand(streamBeginCmd)
	streamCmd.AddCommand(streamChunkCmd)
	streamCmd.AddCommand(streamEndCmd)

	streamEndCmd.Flags().Bool("commit", false, "Persist the accumulated text into the tree")
}

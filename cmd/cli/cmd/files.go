package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/pkg/client"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Work with a session's project files",
	Long:  `Read, write, and list files in a session's virtual project tree.`,
}

var catCmd = &cobra.Command{
	Use:   "cat <session-id> <path>",
	Short: "Read a file from a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		content, err := c.ReadFile(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		fmt.Print(content)
		return nil
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <session-id> <path> <content>",
	Short: "Replace a file's content in a session",
	Long: `Replace a file's content. Use - to read from stdin.
Example: canvas files write abc123 style.css "body { margin: 0 }"
         cat app.js | canvas files write abc123 script.js -`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		content := args[2]
		if content == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
			content = string(data)
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.WriteFile(ctx, args[0], args[1], content); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}

		fmt.Printf("✓ File written: %s\n", args[1])
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:     "list <session-id>",
	Aliases: []string{"ls"},
	Short:   "List all files in a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		flat, err := c.ListFiles(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}

		paths := make([]string, 0, len(flat))
		for path := range flat {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			fmt.Printf("%s\t%d bytes\n", path, len(flat[path]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)

	filesCmd.AddCommand(catCmd)
	filesCmd.AddCommand(writeCmd)
	filesCmd.AddCommand(lsCmd)
}

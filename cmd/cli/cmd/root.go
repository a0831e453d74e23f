package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	apiKey  string
)

var rootCmd = &cobra.Command{
	Use:   "canvas",
	Short: "CodeCanvas CLI - Manage editing sessions from the command line",
	Long: `CodeCanvas CLI (canvas) is a command-line tool for working with CodeCanvas sessions.

It provides commands to create and manage sessions, read and write project files,
drive generator streams, run python files remotely, and inspect the live preview.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", getEnvOrDefault("CODECANVAS_API_URL", "http://localhost:8080"), "CodeCanvas API base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("CODECANVAS_API_KEY"), "CodeCanvas API key")
}

func getEnvOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func checkAPIKey() error {
	if apiKey == "" {
		return fmt.Errorf("API key is required. Set CODECANVAS_API_KEY environment variable or use --api-key flag")
	}
	return nil
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecanvas/codecanvas/pkg/client"
	"github.com/codecanvas/codecanvas/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Manage editing sessions",
	Long:    `Create, list, inspect, and close editing sessions.`,
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new editing session",
	Long: `Create a new editing session. Without --project the session starts
from the scaffolded starter project; with it, a persisted snapshot is resumed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		projectID, _ := cmd.Flags().GetString("project")

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		info, err := c.CreateSession(ctx, types.SessionConfig{Name: name, ProjectID: projectID})
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		fmt.Printf("✓ Session created: %s\n", info.ID)
		fmt.Printf("  Project: %s\n", info.ProjectID)
		if info.Name != "" {
			fmt.Printf("  Name: %s\n", info.Name)
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all live sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		infos, err := c.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No sessions found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROJECT\tNAME\tSTREAMING")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", info.ID, info.ProjectID, info.Name, info.Streaming)
		}
		w.Flush()

		return nil
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Get session details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		info, err := c.GetSession(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, _ := json.MarshalIndent(info, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Session: %s\n", info.ID)
		fmt.Printf("  Project: %s\n", info.ProjectID)
		fmt.Printf("  Name: %s\n", info.Name)
		fmt.Printf("  Streaming: %t\n", info.Streaming)
		return nil
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:     "close <session-id>",
	Aliases: []string{"delete", "rm"},
	Short:   "Close a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.DeleteSession(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}

		fmt.Printf("✓ Session %s closed\n", args[0])
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List persisted project snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkAPIKey(); err != nil {
			return err
		}

		c := client.NewClient(baseURL, apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		infos, err := c.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No projects found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tUPDATED")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.ID, info.Name, info.UpdatedAt)
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(projectsCmd)

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionGetCmd)
	sessionCmd.AddCommand(sessionCloseCmd)

	sessionCreateCmd.Flags().String("name", "", "Project name for a fresh session")
	sessionCreateCmd.Flags().String("project", "", "Persisted project ID to resume")

	sessionGetCmd.Flags().Bool("json", false, "Output as JSON")
}

package main

import (
	"fmt"
	"os"

	"github.com/campusdesk/campusdesk/internal/cli"
	"github.com/campusdesk/campusdesk/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "campusdesk",
		Short: "Campusdesk CLI - campus assistant knowledge management",
		Long: `Campusdesk CLI provides commands to manage the campus assistant knowledge
base and to ask questions against a running campusdeskd.

Environment variables:
  CAMPUSDESK_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.UpdateCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.StatsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/campusdesk/campusdesk/internal/cli"
	"github.com/campusdesk/campusdesk/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "campusdeskd",
		Short: "Campusdesk daemon",
		Long:  "Campusdesk daemon for running the campus assistant API server and maintenance jobs",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.SnapshotCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

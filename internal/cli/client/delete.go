package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// DeleteResponse represents the delete API response.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDelete(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runDelete(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Delete("/knowledge/" + id)
	if err != nil {
		return fmt.Errorf("failed to delete knowledge item: %w", err)
	}

	var del DeleteResponse
	if err := json.Unmarshal(resp.Data, &del); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(del, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if del.Deleted {
		fmt.Printf("Deleted knowledge item: %s\n", id)
	} else {
		fmt.Printf("Knowledge item not found (already deleted?): %s\n", id)
	}
	return nil
}

package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Knowledge represents a knowledge item returned by the API.
type Knowledge struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Tags      []string          `json:"tags"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
	UpdatedAt string            `json:"updated_at"`
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a knowledge item by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runGet(cmd *cobra.Command, id string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/knowledge/" + id)
	if err != nil {
		return fmt.Errorf("failed to get knowledge item: %w", err)
	}

	var item Knowledge
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	printKnowledge(&item)
	return nil
}

func printKnowledge(item *Knowledge) {
	fmt.Printf("ID:       %s\n", item.ID)
	fmt.Printf("Category: %s\n", item.Category)
	fmt.Printf("Title:    %s\n", item.Title)
	if len(item.Tags) > 0 {
		fmt.Printf("Tags:     %v\n", item.Tags)
	}
	fmt.Printf("Updated:  %s\n", item.UpdatedAt)
	fmt.Printf("\n%s\n", item.Content)
}

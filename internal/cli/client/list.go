package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// KnowledgeListResponse represents the list API response.
type KnowledgeListResponse struct {
	Items []Knowledge `json:"items"`
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "List knowledge items in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, category string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/knowledge?category=" + category)
	if err != nil {
		return fmt.Errorf("failed to list knowledge items: %w", err)
	}

	var list KnowledgeListResponse
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(list.Items) == 0 {
		fmt.Printf("No knowledge items in category %q.\n", category)
		return nil
	}

	fmt.Printf("%d items in %s:\n\n", len(list.Items), category)
	for i, item := range list.Items {
		fmt.Printf("%d. %s\n", i+1, item.Title)
		fmt.Printf("   ID: %s\n", item.ID)
		if len(item.Tags) > 0 {
			fmt.Printf("   Tags: %v\n", item.Tags)
		}
	}

	return nil
}

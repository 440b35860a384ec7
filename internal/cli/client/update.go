package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// UpdateKnowledgeRequest represents the update knowledge API request. Only
// fields the user set are sent; absent fields stay unchanged.
type UpdateKnowledgeRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// UpdateCmd creates the update command.
func UpdateCmd() *cobra.Command {
	var (
		title   string
		content string
		tags    []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			var req UpdateKnowledgeRequest
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("content") {
				req.Content = &content
			}
			if cmd.Flags().Changed("tag") {
				req.Tags = &tags
			}
			if req.Title == nil && req.Content == nil && req.Tags == nil {
				return fmt.Errorf("nothing to update: pass --title, --content, or --tag")
			}

			return runUpdate(cmd, args[0], req, outputJSON)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New content")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Replacement tag set (repeatable)")

	return cmd
}

func runUpdate(cmd *cobra.Command, id string, req UpdateKnowledgeRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Put("/knowledge/"+id, req)
	if err != nil {
		return fmt.Errorf("failed to update knowledge item: %w", err)
	}

	var item Knowledge
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Updated knowledge item: %s\n", item.ID)
		fmt.Printf("Title: %s\n", item.Title)
	}

	return nil
}

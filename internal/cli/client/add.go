package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// CreateKnowledgeRequest represents the create knowledge API request.
type CreateKnowledgeRequest struct {
	Category string            `json:"category"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Tags     []string          `json:"tags,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		file     string
		category string
		title    string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a knowledge item from stdin or file",
		Long: `Add a knowledge item from JSON input (stdin or file) or plain text with flags.

Examples:
  # Add from JSON on stdin
  echo '{"category":"policy","title":"报销比例","content":"门诊报销比例为80%"}' | campusdesk add

  # Add from JSON file
  campusdesk add --file item.json

  # Add plain text content with flags
  campusdesk add --file notice.txt --category procedure --title "报销流程" --tag 流程`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(cmd, file, category, title, tags, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON or plain text)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Knowledge category")
	cmd.Flags().StringVar(&title, "title", "", "Title (required with plain text input)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")

	return cmd
}

func runAdd(cmd *cobra.Command, file, category, title string, tags []string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	var req CreateKnowledgeRequest
	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		req.Content = string(input)
	}

	// Flags override JSON fields
	if category != "" {
		req.Category = category
	}
	if title != "" {
		req.Title = title
	}
	if len(tags) > 0 {
		req.Tags = tags
	}

	if req.Category == "" {
		return fmt.Errorf("category is required")
	}
	if req.Title == "" {
		return fmt.Errorf("title is required")
	}
	if req.Content == "" {
		return fmt.Errorf("content is required")
	}

	resp, err := api.Post("/knowledge", req)
	if err != nil {
		return fmt.Errorf("failed to create knowledge item: %w", err)
	}

	var item Knowledge
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(item, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Created knowledge item: %s\n", item.ID)
		fmt.Printf("Title: %s\n", item.Title)
		fmt.Printf("Category: %s\n", item.Category)
	}

	return nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && s[0] == '{'
}

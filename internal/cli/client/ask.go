package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AskRequest represents the streamed ask API request.
type AskRequest struct {
	Question string `json:"question"`
}

// Source represents one citation attached to an answer.
type Source struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question",
		Long:  "Asks the campus assistant a question and prints the answer as it streams.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, args[0])
		},
	}

	return cmd
}

func runAsk(cmd *cobra.Command, question string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var answerFailed bool
	err = api.PostStream("/ask/stream", AskRequest{Question: question}, func(ev StreamEvent) error {
		switch ev.Type {
		case "start":
			// Nothing to print; the answer follows.
		case "chunk":
			var text string
			if err := json.Unmarshal(ev.Content, &text); err != nil {
				return fmt.Errorf("failed to parse chunk: %w", err)
			}
			fmt.Print(text)
		case "sources":
			var sources []Source
			if err := json.Unmarshal(ev.Content, &sources); err != nil {
				return fmt.Errorf("failed to parse sources: %w", err)
			}
			if len(sources) > 0 {
				fmt.Printf("\n\n参考来源：\n")
				for i, src := range sources {
					fmt.Printf("  %d. %s (%s, %.2f)\n", i+1, src.Title, src.Category, src.Score)
				}
			}
		case "end":
			fmt.Printf("\n(%.2fs)\n", ev.TotalTime)
		case "error":
			answerFailed = true
			fmt.Fprintf(os.Stderr, "\n%s\n", ev.Message)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if answerFailed {
		return fmt.Errorf("answer failed")
	}
	return nil
}

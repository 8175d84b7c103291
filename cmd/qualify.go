package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oduo-labs/responder-cli/internal/engine"
	"github.com/oduo-labs/responder-cli/internal/model"
)

// transcript is the offline qualification input: a conversation plus any
// facts already known.
type transcript struct {
	Intent   model.Intent `yaml:"intent"`
	Facts    model.Facts  `yaml:"facts"`
	Messages []struct {
		Role    model.Role `yaml:"role"`
		Content string     `yaml:"content"`
	} `yaml:"messages"`
}

var qualifyCmd = &cobra.Command{
	Use:   "qualify <transcript.yaml>",
	Short: "Run the qualification engine over a transcript file",
	Long:  "Runs intent classification, fact extraction, phase determination and the salesperson briefing over a YAML transcript, without touching the store. Useful for tuning lexicons against real conversations.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var tr transcript
		if err := yaml.Unmarshal(data, &tr); err != nil {
			return eris.Wrapf(err, "parse transcript %s", args[0])
		}
		if len(tr.Messages) == 0 {
			return eris.New("transcript has no messages")
		}

		history := make([]model.Exchange, 0, len(tr.Messages))
		now := time.Now().UTC()
		for _, m := range tr.Messages {
			history = append(history, model.Exchange{
				Role: m.Role, Content: m.Content, Timestamp: now,
			})
		}

		intent := tr.Intent
		if intent == "" {
			for i := len(history) - 1; i >= 0; i-- {
				if history[i].Role == model.RoleLead {
					intent = engine.Classify(history[i].Content)
					break
				}
			}
		}

		result := engine.Qualify(history, tr.Facts, intent)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(qualifyCmd)
}

// Package drafter turns a conversation history plus a persona prompt into a
// drafted WhatsApp reply.
package drafter

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/pkg/anthropic"
)

// Drafter produces a reply for the given system prompt and history. The
// history is expected newest-last; implementations window it themselves.
type Drafter interface {
	Draft(ctx context.Context, system string, history []model.Exchange) (string, error)
}

// Options tunes the Anthropic-backed drafter.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Window is the number of trailing history entries sent as context.
	Window int
}

// AnthropicDrafter implements Drafter on the Messages API.
type AnthropicDrafter struct {
	client anthropic.Client
	opts   Options
}

// New creates an AnthropicDrafter.
func New(client anthropic.Client, opts Options) *AnthropicDrafter {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.Window <= 0 {
		opts.Window = 10
	}
	return &AnthropicDrafter{client: client, opts: opts}
}

func (d *AnthropicDrafter) Draft(ctx context.Context, system string, history []model.Exchange) (string, error) {
	if len(history) == 0 {
		return "", eris.New("drafter: empty history")
	}

	window := history
	if len(window) > d.opts.Window {
		window = window[len(window)-d.opts.Window:]
	}

	msgs := make([]anthropic.Message, 0, len(window))
	for _, e := range window {
		role := "user"
		if e.Role == model.RoleBot {
			role = "assistant"
		}
		msgs = append(msgs, anthropic.Message{Role: role, Content: e.Content})
	}
	// The API requires the transcript to open with a user turn.
	for len(msgs) > 0 && msgs[0].Role != "user" {
		msgs = msgs[1:]
	}
	if len(msgs) == 0 {
		return "", eris.New("drafter: no lead messages in window")
	}

	temp := d.opts.Temperature
	resp, err := d.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       d.opts.Model,
		MaxTokens:   int64(d.opts.MaxTokens),
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    msgs,
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "drafter: create message")
	}
	resp.Usage.LogCost(d.opts.Model, "draft_reply")

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", eris.New("drafter: empty completion")
	}

	zap.L().Debug("reply drafted",
		zap.Int("history_window", len(msgs)),
		zap.Int("reply_chars", len(reply)),
	)
	return reply, nil
}

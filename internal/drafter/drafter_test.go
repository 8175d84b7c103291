package drafter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oduo-labs/responder-cli/internal/model"
	"github.com/oduo-labs/responder-cli/pkg/anthropic"
)

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestDraft_MapsRolesAndReturnsReply(t *testing.T) {
	client := new(anthropic.MockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 3 &&
			req.Messages[0].Role == "user" &&
			req.Messages[1].Role == "assistant" &&
			req.Messages[2].Role == "user" &&
			req.System[0].Text == "persona"
	})).Return(textResponse("  Ola, Maria! Como posso ajudar?  "), nil)

	d := New(client, Options{Model: "claude-haiku-4-5-20251001"})
	history := []model.Exchange{
		{Role: model.RoleLead, Content: "oi"},
		{Role: model.RoleBot, Content: "ola"},
		{Role: model.RoleLead, Content: "quero saber mais"},
	}

	reply, err := d.Draft(context.Background(), "persona", history)
	require.NoError(t, err)
	assert.Equal(t, "Ola, Maria! Como posso ajudar?", reply)
	client.AssertExpectations(t)
}

func TestDraft_WindowsHistory(t *testing.T) {
	client := new(anthropic.MockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) <= 4 && req.Messages[0].Role == "user"
	})).Return(textResponse("ok"), nil)

	d := New(client, Options{Model: "m", Window: 4})
	var history []model.Exchange
	for i := 0; i < 12; i++ {
		role := model.RoleLead
		if i%2 == 1 {
			role = model.RoleBot
		}
		history = append(history, model.Exchange{Role: role, Content: "msg"})
	}

	_, err := d.Draft(context.Background(), "persona", history)
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestDraft_TrimsLeadingAssistantTurns(t *testing.T) {
	client := new(anthropic.MockClient)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) == 1 && req.Messages[0].Role == "user"
	})).Return(textResponse("ok"), nil)

	d := New(client, Options{Model: "m"})
	history := []model.Exchange{
		{Role: model.RoleBot, Content: "mensagem de abertura"},
		{Role: model.RoleLead, Content: "oi"},
	}

	_, err := d.Draft(context.Background(), "persona", history)
	require.NoError(t, err)
}

func TestDraft_EmptyHistory(t *testing.T) {
	d := New(new(anthropic.MockClient), Options{Model: "m"})
	_, err := d.Draft(context.Background(), "persona", nil)
	require.Error(t, err)
}

func TestDraft_EmptyCompletion(t *testing.T) {
	client := new(anthropic.MockClient)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{}, nil)

	d := New(client, Options{Model: "m"})
	history := []model.Exchange{{Role: model.RoleLead, Content: "oi"}}

	_, err := d.Draft(context.Background(), "persona", history)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}

package responder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oduo-labs/responder-cli/internal/model"
)

func TestFallbackReply_InboundInterestReleasesLink(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{CampaignID: "inbound_landing", Name: "Rafa"}

	got := FallbackReply(p, lead, "quero sim", model.IntentInterest, testLink)
	assert.Contains(t, got, testLink)
}

func TestFallbackReply_InboundDefaultOpensConversation(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{CampaignID: "inbound_landing"}

	got := FallbackReply(p, lead, "oi", model.IntentNeutral, testLink)
	assert.Contains(t, got, "Joao")
	assert.Contains(t, got, "qual locadora")
}

func TestFallbackReply_InboundRefusal(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{CampaignID: "inbound_landing"}

	got := FallbackReply(p, lead, "nao quero", model.IntentNegative, testLink)
	assert.Contains(t, got, "Sucesso")
	assert.NotContains(t, got, testLink)
}

func TestFallbackReply_ReactivationUsesNameAndNotes(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{
		CampaignID: "reativacao_agosto",
		Name:       "Paula",
		Notes:      "aumentar as locacoes",
	}

	got := FallbackReply(p, lead, "quero sim", model.IntentInterest, testLink)
	assert.Contains(t, got, "Paula")
	assert.Contains(t, got, testLink)

	got = FallbackReply(p, lead, "nao quero", model.IntentNegative, testLink)
	assert.Contains(t, got, "Paula")
	assert.NotContains(t, got, testLink)
}

func TestFallbackReply_NumberProvenanceQuestion(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{
		CampaignID: "reativacao_agosto",
		Name:       "Paula",
		Notes:      "aumentar as locacoes",
	}

	got := FallbackReply(p, lead, "Como conseguiu meu número?", model.IntentQuestion, testLink)
	assert.Contains(t, got, "Conversamos antes")
	assert.Contains(t, got, "aumentar as locacoes")
}

func TestFallbackReply_GenericQuestion(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{CampaignID: "reativacao_agosto", Name: "Paula", Notes: "aumentar as locacoes"}

	got := FallbackReply(p, lead, "O que voces fazem?", model.IntentQuestion, testLink)
	assert.Contains(t, got, "Boa pergunta")
}

func TestFallbackReply_MissingNameUsesPlaceholder(t *testing.T) {
	p := DefaultPersona()
	lead := &model.Lead{CampaignID: "reativacao_agosto"}

	got := FallbackReply(p, lead, "ola", model.IntentNeutral, testLink)
	assert.Contains(t, got, "Amigo")
}

package responder

import (
	"fmt"
	"strings"

	"github.com/oduo-labs/responder-cli/internal/engine"
	"github.com/oduo-labs/responder-cli/internal/model"
)

// FallbackReply produces a canned response when drafting is unavailable or
// fails. Inbound leads get the SDR script; everyone else the reactivation
// script.
func FallbackReply(p *Persona, lead *model.Lead, message string, intent model.Intent, bookingLink string) string {
	if lead.Inbound() {
		switch intent {
		case model.IntentInterest:
			return fmt.Sprintf("Show! Vou te passar o link pra agendar: %s\nEscolhe o melhor horario!", bookingLink)
		case model.IntentNegative:
			return "Entendi! Quando precisar, e so chamar. Sucesso!"
		default:
			return fmt.Sprintf("E ai! Sou o %s da %s! Qual seu nome e qual locadora voce tem?", p.Consultant, p.Agency)
		}
	}

	name := orDefault(lead.Name, "Amigo")
	notes := orDefault(lead.Notes, "crescer o negocio")
	switch intent {
	case model.IntentInterest:
		return fmt.Sprintf("Show %s! Segue o link pra gente conversar: %s\nEscolhe o melhor horario!", name, bookingLink)
	case model.IntentNegative:
		return fmt.Sprintf("Entendo %s, sem problemas! Sucesso ai!", name)
	case model.IntentQuestion:
		folded := engine.Fold(message)
		for _, w := range []string{"numero", "contato", "conseguiu"} {
			if strings.Contains(folded, w) {
				return fmt.Sprintf("Conversamos antes sobre %s, %s. Voltei pra ver se faz sentido!", notes, name)
			}
		}
		return fmt.Sprintf("Boa pergunta %s! A gente ajuda empresarios a %s. Quer saber mais?", name, notes)
	default:
		return fmt.Sprintf("E ai %s, faz sentido pra sua situacao?", name)
	}
}

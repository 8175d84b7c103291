package engine

import (
	"strings"

	"github.com/oduo-labs/responder-cli/internal/model"
)

var faturamentoBrief = map[string]string{
	"ate_20k":   "Pequeno porte (ate R$20k) - foco em comecar a crescer",
	"20_50k":    "Medio porte (R$20-50k) - foco em proximo nivel",
	"acima_50k": "Grande porte (acima R$50k) - foco em escala e automacao",
}

var socioBrief = map[string]string{
	"dono_unico": "Dono unico - pode decidir sozinho",
	"tem_socio":  "TEM SOCIO - garantir presenca na call!",
}

// Insights renders the salesperson briefing: one line per known fact, tone
// heuristics over the lead's messages, and a recommended action by progress
// tier. Advisory text only; it never feeds back into facts or phase.
func Insights(facts model.Facts, history []model.Exchange) string {
	var lines []string

	if facts.Empresa != "" {
		lines = append(lines, "Locadora/Empresa: "+facts.Empresa)
	}
	if facts.Cidade != "" {
		lines = append(lines, "Cidade: "+facts.Cidade)
	}
	if facts.Dor != "" {
		lines = append(lines, "Dor identificada: "+facts.Dor)
	}
	if facts.Faturamento != "" {
		brief, ok := faturamentoBrief[facts.Faturamento]
		if !ok {
			brief = facts.Faturamento
		}
		lines = append(lines, "Faturamento: "+brief)
	}
	if facts.Socio != "" {
		brief, ok := socioBrief[facts.Socio]
		if !ok {
			brief = facts.Socio
		}
		lines = append(lines, "Decisor: "+brief)
	}

	var leadMsgs []string
	for _, m := range history {
		if m.Role == model.RoleLead {
			leadMsgs = append(leadMsgs, m.Content)
		}
	}

	if len(leadMsgs) > 0 {
		total := 0
		for _, m := range leadMsgs {
			total += len(m)
		}
		avg := float64(total) / float64(len(leadMsgs))

		if avg > 50 {
			lines = append(lines, "Perfil: Comunicativo, gosta de detalhar")
		} else if avg < 15 {
			lines = append(lines, "Perfil: Direto, prefere objetividade")
		}

		allText := Fold(strings.Join(leadMsgs, " "))
		if containsAny(allText, urgencyTerms...) {
			lines = append(lines, "ALERTA: Lead com urgencia alta!")
		}
		if containsAny(allText, activePainTerms...) {
			lines = append(lines, "ALERTA: Dor ativa detectada - potencial alto!")
		}
		if facts.Socio == "tem_socio" {
			lines = append(lines, "IMPORTANTE: Confirmar presenca do socio na reuniao!")
		}
	}

	switch progress := Progress(facts); {
	case progress == model.RequiredFactCount:
		lines = append(lines, "Acao: Lead OURO - ligar imediatamente, tem todos os dados")
	case progress >= 2:
		lines = append(lines, "Acao: Lead quente - falta pouco, ser direto na qualificacao")
	default:
		lines = append(lines, "Acao: Lead morno - seguir SPIN, identificar dor e fazer doer")
	}

	return strings.Join(lines, "\n")
}

// Temperature buckets progress into the quente/morno/frio label used in
// prompt context and kanban cards.
func Temperature(progress int) string {
	switch {
	case progress >= 3:
		return "quente"
	case progress >= 1:
		return "morno"
	default:
		return "frio"
	}
}

// SPINStage describes the current stage for prompt context.
func SPINStage(phase model.Phase) string {
	switch phase {
	case model.PhaseOuro:
		return "[OURO] Lead qualificado! Pode propor reuniao - MAS QUALIFIQUE SOCIO ANTES!"
	case model.PhaseSituacao:
		return "[S] SITUACAO - Pergunte nome, locadora, cidade, como ta o movimento"
	case model.PhaseProblema:
		return "[P] PROBLEMA - Encontre a DOR! Pergunte sobre dificuldades em conseguir clientes"
	case model.PhaseImplicacao:
		return "[I] IMPLICACAO - FACA DOER! Mostre o prejuizo de nao resolver AGORA"
	case model.PhaseNecessidade:
		return "[N] NECESSIDADE - Pode propor reuniao - MAS QUALIFIQUE FATURAMENTO/SOCIO ANTES!"
	case model.PhaseCurioso:
		return "[CURIOSO] Lead sem interesse real. Encerre educadamente."
	default:
		return "[S/P] Precisa identificar situacao e problema antes de avancar"
	}
}

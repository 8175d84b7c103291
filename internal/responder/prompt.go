package responder

import (
	"fmt"
	"strings"

	"github.com/oduo-labs/responder-cli/internal/engine"
	"github.com/oduo-labs/responder-cli/internal/model"
)

// Prompt construction. Three templates, selected by the lead's campaign
// origin: reactivation (spoke to us before), cold SPIN (found on Google)
// and inbound hybrid (landing page, qualification-gated link release).

var reactivationIntentInstructions = map[model.Intent]string{
	model.IntentInterest: "O lead mostrou INTERESSE! Responda positivamente e envie o link de agendamento.",
	model.IntentNegative: "O lead NAO tem interesse. Agradeca educadamente e se despeca. NAO insista.",
	model.IntentQuestion: "O lead fez uma PERGUNTA. Responda usando o contexto disponivel.",
	model.IntentNeutral:  "Mensagem neutra. Faca uma pergunta para entender melhor o interesse.",
}

var spinIntentInstructions = map[model.Intent]string{
	model.IntentInterest: "O lead mostrou INTERESSE! Convide para uma reuniao rapida de diagnostico e envie o link.",
	model.IntentNegative: "O lead NAO tem interesse. Agradeca e se despeca. NAO insista.",
	model.IntentQuestion: "O lead fez uma PERGUNTA. Responda e aproveite para avancar no SPIN.",
	model.IntentNeutral:  "Mensagem neutra. Avance no SPIN: se ainda nao perguntou sobre problemas, pergunte.",
}

var inboundIntentInstructions = map[model.Intent]string{
	model.IntentInterest: "O lead mostrou INTERESSE! Se ja tem 4/4 dados, proponha reuniao. Senao, avance no SPIN e colete o que falta.",
	model.IntentNegative: "O lead NAO tem interesse. Se ja tentou 2-3x, classifique como CURIOSO e encerre.",
	model.IntentQuestion: "O lead fez uma PERGUNTA. Responda de forma CONSULTIVA e use a resposta pra avancar no SPIN.",
	model.IntentNeutral:  "Mensagem neutra. Avance no SPIN: identifique a DOR e faca ele SENTIR o prejuizo.",
}

// BuildSystemPrompt selects and renders the system prompt for a lead.
func BuildSystemPrompt(p *Persona, lead *model.Lead, intent model.Intent, bookingLink string) string {
	switch {
	case lead.Inbound():
		return inboundPrompt(p, lead, intent, bookingLink)
	case lead.ColdSpin():
		return coldSpinPrompt(p, lead, intent, bookingLink)
	default:
		return reactivationPrompt(p, lead, intent, bookingLink)
	}
}

func reactivationPrompt(p *Persona, lead *model.Lead, intent model.Intent, bookingLink string) string {
	notes := orDefault(lead.Notes, "crescer o negocio")
	var b strings.Builder
	fmt.Fprintf(&b, `Voce e %s, consultor comercial da %s.

CONTEXTO DO LEAD:
- Nome: %s
- Empresa: %s
- Resumo/Dificuldade anterior: %s

SITUACAO: Voce enviou uma mensagem de reativacao para este lead que ja conversou com a empresa antes.
Agora ele respondeu e voce precisa continuar a conversa de forma natural.

REGRAS IMPORTANTES:
1. Seja BREVE - maximo 2-3 frases por resposta
2. Use o nome da pessoa quando possivel
3. Seja informal mas profissional (nada de "prezado" ou "caro")
4. NUNCA invente informacoes - use apenas o que esta no contexto
5. Se perguntarem como conseguiu o numero, diga que conversaram anteriormente sobre %s
6. Se mostrarem interesse, convide para o evento/aula gratuita

LINK DE AGENDAMENTO: %s
(Envie este link APENAS quando o lead demonstrar interesse claro)

OBJETIVO: Qualificar o lead e convidar para evento/chamada se houver interesse.
`,
		p.Consultant, p.Agency,
		orDefault(lead.Name, "Amigo"), orDefault(lead.Company, "sua empresa"),
		notes, notes, bookingLink,
	)
	appendIntent(&b, intent, reactivationIntentInstructions)
	return b.String()
}

func coldSpinPrompt(p *Persona, lead *model.Lead, intent model.Intent, bookingLink string) string {
	niche := p.NicheFor(lead.Facts.Empresa)
	company := orDefault(lead.Company, "sua empresa")
	var b strings.Builder
	fmt.Fprintf(&b, `Voce e %s, consultor comercial da %s especializada em marketing digital para locadoras.

CONTEXTO DO LEAD:
- Nome: %s
- Empresa: %s
- Voce encontrou a empresa no Google e mandou mensagem perguntando sobre a frota deles.

METODOLOGIA SPIN (siga essa ordem conforme a conversa avanca):
1. SITUACAO: Entenda como funciona a operacao hoje. Pergunte sobre a frota, como conseguem clientes, se usam marketing digital.
2. PROBLEMA: Identifique dificuldades. Dependem de indicacao? Frota parada? Dificuldade em conseguir novos clientes?
3. IMPLICACAO: Mostre o impacto do problema. "Entao quando nao tem indicacao, a frota fica parada e voce perde dinheiro?"
4. NECESSIDADE: Guie para a solucao. "E se voce pudesse ter um fluxo constante de clientes sem depender de indicacao?"

REGRAS IMPORTANTES:
1. Seja BREVE - maximo 2-3 frases por resposta
2. Use o nome da pessoa quando possivel
3. Seja informal mas profissional (como um amigo que entende do assunto)
4. NUNCA invente dados - use apenas o que o lead te disser
5. Faca UMA pergunta por vez (nao bombardeie)
6. Se perguntarem como achou a empresa, diga "Vi a %s no Google e achei interessante o negocio de voces"
7. Quando o lead demonstrar interesse na solucao, convide para uma reuniao rapida

PERGUNTAS DO NICHO (%s):
%s

LINK DE AGENDAMENTO: %s
(Envie APENAS quando o lead demonstrar interesse claro na solucao)

OBJETIVO: Entender as dores do lead usando SPIN e fechar uma reuniao de diagnostico gratuito.
`,
		p.Consultant, p.Agency,
		orDefault(lead.Name, "Amigo"), company, company,
		niche.Name, bulletList(niche.Questions), bookingLink,
	)
	appendIntent(&b, intent, spinIntentInstructions)
	return b.String()
}

func inboundPrompt(p *Persona, lead *model.Lead, intent model.Intent, bookingLink string) string {
	facts := lead.Facts
	progress := engine.Progress(facts)
	missing := "TODOS COLETADOS"
	if m := engine.Missing(facts); len(m) > 0 {
		missing = strings.Join(m, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Voce e %s, SDR da %s especializada em marketing digital para locadoras.
O lead veio da pagina de captacao e voce precisa QUALIFICAR antes de propor reuniao.

DADOS DO LEAD:
- Nome: %s
- Locadora: %s
- Cidade: %s
- Dor identificada: %s
- Faturamento: %s
- Socio: %s
- Temperatura: %s
- Progresso de qualificacao: %d/4
- Dados faltando: %s

ETAPA ATUAL: %s

REGRAS IMPORTANTES:
1. Seja BREVE - maximo 2-3 frases por resposta
2. Colete os 4 dados (locadora, dor, faturamento, socio) ANTES de liberar o link
3. Faca UMA pergunta por vez, sempre mirando um dado que falta
4. NUNCA invente dados - use apenas o que o lead te disser
5. Se o lead ja deu um dado, NAO pergunte de novo

LINK DE AGENDAMENTO: %s
(Envie APENAS com 4/4 dados coletados)

OBJETIVO: Qualificar 4/4 e agendar o diagnostico.
`,
		p.Consultant, p.Agency,
		orDefault(lead.Name, "Nao perguntado ainda"),
		orDefault(facts.Empresa, "Nao perguntada ainda"),
		orDefault(facts.Cidade, "Nao perguntada ainda"),
		orDefault(facts.Dor, "USE [I] IMPLICACAO - FACA DOER!"),
		orDefault(facts.Faturamento, "Nao qualificado ainda!"),
		orDefault(facts.Socio, "Nao perguntado"),
		engine.Temperature(progress), progress, missing,
		engine.SPINStage(lead.Phase), bookingLink,
	)
	appendIntent(&b, intent, inboundIntentInstructions)
	return b.String()
}

func appendIntent(b *strings.Builder, intent model.Intent, instructions map[model.Intent]string) {
	fmt.Fprintf(b, "\nTIPO DE MENSAGEM RECEBIDA: %s\n%s", intent, instructions[intent])
}

func bulletList(items []string) string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = "- " + it
	}
	return strings.Join(out, "\n")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

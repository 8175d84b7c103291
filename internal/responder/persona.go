// Package responder orchestrates the reply pipeline: lead lookup, intent
// classification, prompt construction, drafting and the post-send
// qualification pass.
package responder

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Niche is the sales playbook for one business segment: the pains the
// pitch leans on and the qualification questions that open a conversation.
type Niche struct {
	Name      string   `yaml:"name"`
	MainPain  string   `yaml:"main_pain"`
	Pains     []string `yaml:"pains"`
	Solution  string   `yaml:"solution"`
	Questions []string `yaml:"questions"`
}

// Persona is the full drafting configuration: consultant identity plus
// per-niche playbooks. Loadable from YAML so sales can tune wording
// without a redeploy.
type Persona struct {
	Consultant    string            `yaml:"consultant"`
	Agency        string            `yaml:"agency"`
	Tone          string            `yaml:"tone"`
	DefaultNiche  string            `yaml:"default_niche"`
	BusinessTerms map[string]string `yaml:"business_terms"`
	Niches        map[string]Niche  `yaml:"niches"`
}

// NicheFor returns the playbook for a segment. A miss falls back to the
// configured default niche, then to the generic one, so an operator
// targeting a single vertical gets that playbook before any fact is known.
func (p *Persona) NicheFor(segment string) Niche {
	if n, ok := p.Niches[strings.ToLower(segment)]; ok {
		return n
	}
	if n, ok := p.Niches[strings.ToLower(p.DefaultNiche)]; ok {
		return n
	}
	return p.Niches["generico"]
}

// TranslateTerm maps a tech term to business language, or returns it as-is.
func (p *Persona) TranslateTerm(term string) string {
	if t, ok := p.BusinessTerms[strings.ToLower(term)]; ok {
		return t
	}
	return term
}

// LoadPersona reads a persona YAML overlaying the built-in defaults.
// An empty path returns the defaults unchanged.
func LoadPersona(path string) (*Persona, error) {
	p := DefaultPersona()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "responder: read persona %s", path)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, eris.Wrapf(err, "responder: parse persona %s", path)
	}
	if len(p.Niches) == 0 {
		return nil, eris.Errorf("responder: persona %s defines no niches", path)
	}
	if _, ok := p.Niches["generico"]; !ok {
		return nil, eris.Errorf("responder: persona %s is missing the generico niche", path)
	}
	return p, nil
}

// DefaultPersona returns the built-in consultant persona and playbooks.
func DefaultPersona() *Persona {
	return &Persona{
		Consultant: "Joao",
		Agency:     "Oduo Assessoria",
		Tone:       "informal mas profissional",
		BusinessTerms: map[string]string{
			"seo":            "visibilidade no mercado",
			"lead":           "oportunidade de negocio",
			"landing_page":   "pagina de captacao",
			"funil":          "jornada do cliente",
			"conversao":      "fechamento",
			"churn":          "perda de clientes",
			"roi":            "retorno sobre investimento",
			"follow_up":      "acompanhamento",
			"estoque_ocioso": "patrimonio parado",
			"score":          "potencial de conversao",
		},
		Niches: map[string]Niche{
			"locadora": {
				Name:     "Locadora de Equipamentos",
				MainPain: "patrimonio parado gerando custo",
				Pains: []string{
					"maquinas ociosas sem gerar receita",
					"clientes nao encontram equipamentos disponiveis",
					"controle manual de disponibilidade",
					"perda de oportunidades por resposta lenta",
				},
				Solution: "visibilidade de mercado e gestao de disponibilidade",
				Questions: []string{
					"Quantos equipamentos voces tem no parque hoje?",
					"Como controlam a disponibilidade - planilha, sistema?",
					"Qual o tempo medio que uma maquina fica parada entre locacoes?",
				},
			},
			"autopecas": {
				Name:     "Auto Pecas",
				MainPain: "cliente que vai pro concorrente",
				Pains: []string{
					"cliente nao encontra a peca online",
					"balconista sobrecarregado com consultas",
					"perda de vendas por falta de resposta rapida",
				},
				Solution: "catalogo digital com busca inteligente",
				Questions: []string{
					"Quantas consultas de peca voces recebem por dia?",
					"O cliente consegue ver online se a peca tem em estoque?",
					"Qual porcentagem de clientes desiste esperando resposta?",
				},
			},
			"oficina": {
				Name:     "Oficina Mecanica",
				MainPain: "cliente que nao volta",
				Pains: []string{
					"sem agendamento online",
					"cliente esquece de retornar para manutencao",
					"orcamento demorado espanta cliente",
				},
				Solution: "agendamento e acompanhamento automatico",
				Questions: []string{
					"Quantos carros atendem por semana em media?",
					"O cliente consegue agendar online?",
					"Voces fazem lembrete de revisao periodica?",
				},
			},
			"clinica": {
				Name:     "Clinica/Consultorio",
				MainPain: "agenda com buracos",
				Pains: []string{
					"faltas e cancelamentos de ultima hora",
					"paciente nao retorna para acompanhamento",
					"dificuldade de ser encontrado online",
				},
				Solution: "agendamento com lembrete e acompanhamento",
				Questions: []string{
					"Quantas consultas por semana em media?",
					"Qual a taxa de faltas e cancelamentos?",
					"Os pacientes conseguem agendar online?",
				},
			},
			"restaurante": {
				Name:     "Restaurante",
				MainPain: "mesa vazia no horario de pico",
				Pains: []string{
					"cliente nao encontra cardapio online",
					"pedidos por telefone geram erro",
					"fila espanta cliente",
				},
				Solution: "cardapio digital e reserva online",
				Questions: []string{
					"Voces tem cardapio digital ou so impresso?",
					"O cliente consegue fazer pedido online?",
					"Quantas mesas perdem por fila no horario de pico?",
				},
			},
			"generico": {
				Name:     "Empresa",
				MainPain: "falta de presenca digital",
				Pains: []string{
					"cliente nao encontra a empresa online",
					"sem forma de contato rapida",
					"concorrente mais visivel na internet",
				},
				Solution: "presenca digital profissional",
				Questions: []string{
					"Como os clientes encontram voces hoje?",
					"Voces tem site ou usam so redes sociais?",
					"Qual o principal canal de atendimento?",
				},
			},
		},
	}
}

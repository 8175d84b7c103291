package engine

// Lexicons are ASCII-folded Portuguese; Fold strips accents from incoming
// text before matching, so "não" hits "nao".

// interestTerms signal a positive reaction to the pitch.
var interestTerms = []string{
	"sim", "quero", "bora", "vamos", "interessado", "interesse",
	"faz sentido", "gostaria", "pode ser", "topo", "fechado",
	"show", "perfeito", "massa", "combinado", "ok", "beleza",
	"manda", "envia", "passa", "me conta", "como funciona",
	"quanto custa", "valor", "preco", "investimento",
	"quero participar", "quero ver", "me inscreve",
	"agenda", "agendar", "marcar", "horario", "disponivel",
	"quando", "amanha", "hoje", "semana que vem",
}

// negativeTerms signal disinterest or an opt-out request. Checked before
// everything else: a message carrying both a negative and an interest term
// is negative.
var negativeTerms = []string{
	"nao", "nao quero", "nao tenho interesse", "sem interesse",
	"nao preciso", "nao obrigado", "para de", "sai fora",
	"remove", "descadastrar", "bloquear", "spam",
	"nao me manda", "nao quero receber", "para",
}

// questionTerms are interrogatives plus a literal question mark.
var questionTerms = []string{
	"quem", "como", "onde", "quando", "porque", "por que",
	"qual", "o que", "quanto", "?",
	"conseguiu", "pegou", "achou", "descobriu",
	"numero", "contato", "conhece", "lembra",
}

// empresaTerms are business-type keywords accepted as a company/segment fact.
var empresaTerms = []string{
	"locadora", "auto pecas", "autopecas", "oficina", "mecanica",
	"clinica", "consultorio", "restaurante", "lanchonete",
	"loja", "distribuidora", "transportadora", "imobiliaria",
	"agencia", "construtora", "escritorio",
}

// dorTerms are pain-point keywords; the matched term is stored verbatim as
// the dor label.
var dorTerms = []string{
	"parado", "parada", "ocioso", "ociosa",
	"fraco", "caindo", "perdendo", "prejuizo",
	"sem clientes", "poucos clientes", "falta de clientes",
	"dificuldade", "dependendo de indicacao", "depende de indicacao",
	"so indicacao", "indicacao", "sem movimento", "movimento fraco",
	"concorrencia", "nao aparece no google",
}

// faturamentoTerms is the broad fallback when no revenue bracket phrasing
// matched; the raw term is stored.
var faturamentoTerms = []string{
	"faturamento", "faturo", "faturando", "fatura",
	"receita", "mil por mes", "k por mes", "por mes",
}

// Revenue bracket phrasings, checked in order before faturamentoTerms.
var (
	acima50kTerms = []string{"acima de 50", "acima 50", "mais de 50", "acima_50k"}
	entre20e50    = []string{"20-50", "20 a 50", "20_50k", "entre 20", "20 e 50"}
	ate20kTerms   = []string{"ate 20", "menos de 20", "ate_20k", "abaixo de 20"}
)

// Ownership phrasings; sole-owner checked first.
var (
	donoUnicoTerms = []string{
		"sou dono", "sou o dono", "eu que decido", "eu decido",
		"sozinho", "so eu", "sou eu mesmo", "proprietario",
	}
	temSocioTerms = []string{
		"tenho socio", "tem socio", "meu socio", "meu parceiro", "socio",
	}
)

// Insight heuristics.
var (
	urgencyTerms    = []string{"urgente", "pra ontem", "rapido", "hoje", "amanha", "prioridade"}
	activePainTerms = []string{"parado", "fraco", "caindo", "perdendo", "prejuizo"}
)

package engine

import (
	"regexp"
	"strings"
)

// Each extractor is a pure text -> (value, ok) function over a single
// message. History iteration belongs to Merge; extractors never see it.

var (
	// "minha empresa Locacar", "sou da Silva Locacoes", "chamo Premium Motors"
	empresaTriggerRe = regexp.MustCompile(`\b(?:sou\s+d[ao]|minha\s+empresa|empresa\s+e|chamo)\s+([A-Z][a-zA-Z\s&]+)`)
	// "locadora Estrela", "loja Central"
	empresaNounRe = regexp.MustCompile(`\b(?:locadora|empresa|loja)\s+([A-Z][a-zA-Z\s&]+)`)

	// "moro em Campinas", "sou de Belo Horizonte". Triggers are lowercase
	// on purpose; the capture starts at the first capitalized word.
	cidadeTriggerRe = regexp.MustCompile(`\b(?:aqui\s+em|moro\s+em|fico\s+em|cidade\s+de|sou\s+de|de|em)\s+([A-ZÀ-Ú][A-Za-zà-úÀ-Ú]+(?:\s+[A-Za-zà-úÀ-Ú]+)*)`)
	// "Ribeirão Preto - SP", "Santos/SP"
	cidadeUFRe = regexp.MustCompile(`([A-ZÀ-Ú][A-Za-zà-úÀ-Ú]+(?:\s+[A-ZÀ-Ú][A-Za-zà-úÀ-Ú]+)?)\s*[-/]\s*[A-Z]{2}\b`)
)

// ExtractEmpresa finds a company name or business segment. Lexicon terms win
// over proper-noun captures; the folded keyword is returned as the segment
// label when it hits.
func ExtractEmpresa(text string) (string, bool) {
	if kw, ok := firstMatch(Fold(text), empresaTerms); ok {
		return kw, true
	}
	for _, re := range []*regexp.Regexp{empresaTriggerRe, empresaNounRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// ExtractDor finds a pain-point keyword; the matched term is the label.
func ExtractDor(text string) (string, bool) {
	return firstMatch(Fold(text), dorTerms)
}

// ExtractFaturamento finds a revenue bracket. Bracket phrasings are checked
// high to low; a generic revenue keyword is returned raw when no bracket
// phrasing hits.
func ExtractFaturamento(text string) (string, bool) {
	folded := Fold(text)

	switch {
	case containsAny(folded, acima50kTerms...):
		return "acima_50k", true
	case containsAny(folded, entre20e50...):
		return "20_50k", true
	case containsAny(folded, ate20kTerms...):
		return "ate_20k", true
	}

	return firstMatch(folded, faturamentoTerms)
}

// ExtractSocio finds the ownership structure. Sole-owner phrasing is
// checked first: "sou dono, sem sócio" resolves to dono_unico.
func ExtractSocio(text string) (string, bool) {
	folded := Fold(text)
	if containsAny(folded, donoUnicoTerms...) {
		return "dono_unico", true
	}
	if containsAny(folded, temSocioTerms...) {
		return "tem_socio", true
	}
	return "", false
}

// ExtractCidade finds a city mention: trigger-phrase capture first, then
// the "<Place> - UF" form. Runs on the original-cased text.
func ExtractCidade(text string) (string, bool) {
	if m := cidadeTriggerRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := cidadeUFRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

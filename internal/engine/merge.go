package engine

import "github.com/oduo-labs/responder-cli/internal/model"

// Merge folds extractor output over conversation history into a
// monotonically growing fact set. Only lead-authored entries are scanned,
// and a key already present in existing is never touched: qualification
// only accumulates. Because the full history is rescanned on every call,
// Merge is idempotent: merging twice equals merging once.
func Merge(history []model.Exchange, existing model.Facts) model.Facts {
	facts := existing

	for _, msg := range history {
		if msg.Role != model.RoleLead {
			continue
		}

		if facts.Empresa == "" {
			if v, ok := ExtractEmpresa(msg.Content); ok {
				facts.Empresa = v
			}
		}
		if facts.Dor == "" {
			if v, ok := ExtractDor(msg.Content); ok {
				facts.Dor = v
			}
		}
		if facts.Faturamento == "" {
			if v, ok := ExtractFaturamento(msg.Content); ok {
				facts.Faturamento = v
			}
		}
		if facts.Socio == "" {
			if v, ok := ExtractSocio(msg.Content); ok {
				facts.Socio = v
			}
		}
		if facts.Cidade == "" {
			if v, ok := ExtractCidade(msg.Content); ok {
				facts.Cidade = v
			}
		}
	}

	return facts
}

// Progress counts the required facts present: empresa, dor, faturamento,
// socio. Cidade is bonus data and never counts.
func Progress(f model.Facts) int {
	n := 0
	for _, v := range []string{f.Empresa, f.Dor, f.Faturamento, f.Socio} {
		if v != "" {
			n++
		}
	}
	return n
}

// Missing returns human labels for the absent required facts, always in
// canonical key order regardless of which facts arrived first.
func Missing(f model.Facts) []string {
	var missing []string
	if f.Empresa == "" {
		missing = append(missing, "locadora/empresa")
	}
	if f.Dor == "" {
		missing = append(missing, "dor/problema identificado")
	}
	if f.Faturamento == "" {
		missing = append(missing, "faturamento")
	}
	if f.Socio == "" {
		missing = append(missing, "dono ou tem socio")
	}
	return missing
}

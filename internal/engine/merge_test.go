package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oduo-labs/responder-cli/internal/model"
)

func leadSays(content string) model.Exchange {
	return model.Exchange{Role: model.RoleLead, Content: content}
}

func botSays(content string) model.Exchange {
	return model.Exchange{Role: model.RoleBot, Content: content}
}

func TestMerge_AccumulatesAcrossMessages(t *testing.T) {
	history := []model.Exchange{
		leadSays("Tenho uma locadora em Campinas"),
		botSays("Como anda o movimento?"),
		leadSays("O movimento ta parado"),
		botSays("Entendo. Qual a faixa de faturamento?"),
		leadSays("faturamos acima de 50 mil"),
	}

	facts := Merge(history, model.Facts{})
	assert.Equal(t, "locadora", facts.Empresa)
	assert.Equal(t, "Campinas", facts.Cidade)
	assert.Equal(t, "parado", facts.Dor)
	assert.Equal(t, "acima_50k", facts.Faturamento)
	assert.Empty(t, facts.Socio)
}

func TestMerge_NeverOverwrites(t *testing.T) {
	existing := model.Facts{Dor: "caindo", Faturamento: "ate_20k"}
	history := []model.Exchange{
		leadSays("o movimento ta parado"),
		botSays("certo"),
		leadSays("faturo acima de 50"),
	}

	facts := Merge(history, existing)
	assert.Equal(t, "caindo", facts.Dor)
	assert.Equal(t, "ate_20k", facts.Faturamento)
}

func TestMerge_IgnoresBotMessages(t *testing.T) {
	history := []model.Exchange{
		botSays("muitas locadoras tem o movimento parado"),
		leadSays("entendi"),
	}

	facts := Merge(history, model.Facts{})
	assert.Empty(t, facts.Empresa)
	assert.Empty(t, facts.Dor)
}

func TestMerge_Idempotent(t *testing.T) {
	history := []model.Exchange{
		leadSays("minha empresa Locamax"),
		botSays("legal"),
		leadSays("sou o dono, decido sozinho"),
	}

	once := Merge(history, model.Facts{})
	twice := Merge(history, once)
	assert.Equal(t, once, twice)
}

func TestMerge_EmptyHistory(t *testing.T) {
	existing := model.Facts{Empresa: "locadora"}
	assert.Equal(t, existing, Merge(nil, existing))
}

func TestProgress_ExcludesCidade(t *testing.T) {
	assert.Equal(t, 0, Progress(model.Facts{Cidade: "Santos"}))
	assert.Equal(t, 2, Progress(model.Facts{Empresa: "locadora", Dor: "parado", Cidade: "Santos"}))
	assert.Equal(t, 4, Progress(model.Facts{
		Empresa: "locadora", Dor: "parado", Faturamento: "20_50k", Socio: "dono_unico",
	}))
}

func TestMissing_CanonicalOrder(t *testing.T) {
	missing := Missing(model.Facts{})
	assert.Equal(t, []string{
		"locadora/empresa",
		"dor/problema identificado",
		"faturamento",
		"dono ou tem socio",
	}, missing)
}

func TestMissing_FullyQualified(t *testing.T) {
	facts := model.Facts{Empresa: "locadora", Dor: "parado", Faturamento: "20_50k", Socio: "tem_socio"}
	assert.Empty(t, Missing(facts))
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// smalltalk builds a history of n entries that extract nothing.
func smalltalk(n int) []model.Exchange {
	history := make([]model.Exchange, 0, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			history = append(history, leadSays("hmm"))
		} else {
			history = append(history, botSays("certo"))
		}
	}
	return history
}

func TestDeterminePhase_OuroOverridesIntent(t *testing.T) {
	facts := model.Facts{Empresa: "locadora", Dor: "parado", Faturamento: "20_50k", Socio: "dono_unico"}

	// Full qualification wins even over a refusal in the last message.
	assert.Equal(t, model.PhaseOuro, DeterminePhase(smalltalk(8), facts, model.IntentNegative))
	assert.Equal(t, model.PhaseOuro, DeterminePhase(nil, facts, model.IntentNeutral))
}

func TestDeterminePhase_NegativeNoProgressIsCurioso(t *testing.T) {
	assert.Equal(t, model.PhaseCurioso, DeterminePhase(smalltalk(2), model.Facts{}, model.IntentNegative))
}

func TestDeterminePhase_NegativeWithSomeProgressKeepsQualifying(t *testing.T) {
	facts := model.Facts{Empresa: "locadora"}

	// One fact, short conversation: keep working instead of closing.
	assert.Equal(t, model.PhaseSituacao, DeterminePhase(smalltalk(4), facts, model.IntentNegative))
}

func TestDeterminePhase_PersistentRefusalIsCurioso(t *testing.T) {
	facts := model.Facts{Empresa: "locadora"}

	// Three exchanges in with under half the facts: close politely.
	assert.Equal(t, model.PhaseCurioso, DeterminePhase(smalltalk(6), facts, model.IntentNegative))
}

func TestDeterminePhase_SPINLadder(t *testing.T) {
	// Opening: at most one exchange.
	assert.Equal(t, model.PhaseSituacao, DeterminePhase(smalltalk(1), model.Facts{}, model.IntentNeutral))
	assert.Equal(t, model.PhaseSituacao, DeterminePhase(smalltalk(2), model.Facts{}, model.IntentInterest))

	// Conversation underway but no pain point yet.
	assert.Equal(t, model.PhaseProblema, DeterminePhase(smalltalk(4), model.Facts{Empresa: "locadora"}, model.IntentNeutral))

	// Pain known, under three facts.
	facts := model.Facts{Empresa: "locadora", Dor: "parado"}
	assert.Equal(t, model.PhaseImplicacao, DeterminePhase(smalltalk(4), facts, model.IntentNeutral))

	// Three facts: drive toward the meeting.
	facts.Faturamento = "20_50k"
	assert.Equal(t, model.PhaseNecessidade, DeterminePhase(smalltalk(4), facts, model.IntentQuestion))
}

func TestDeterminePhase_Deterministic(t *testing.T) {
	history := smalltalk(6)
	facts := model.Facts{Dor: "fraco"}

	first := DeterminePhase(history, facts, model.IntentQuestion)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DeterminePhase(history, facts, model.IntentQuestion))
	}
}

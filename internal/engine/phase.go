package engine

import "github.com/oduo-labs/responder-cli/internal/model"

// DeterminePhase derives the dialogue phase from history, facts and the
// last intent. Always recomputed fresh rather than incrementally patched,
// so a stored phase can be reconciled against the facts that justify it
// after replays.
//
// Precedence:
//  1. ouro when all four required facts are known, regardless of intent.
//  2. negative intent closes as curioso when almost nothing was learned
//     (progress 0), or when the lead keeps refusing after three exchanges
//     with under half the facts. A negative with some progress and a short
//     history keeps qualifying at the situacao tier instead of closing.
//  3. otherwise the exchange count and fact gaps drive the SPIN ladder.
func DeterminePhase(history []model.Exchange, facts model.Facts, intent model.Intent) model.Phase {
	progress := Progress(facts)
	exchanges := len(history) / 2

	if progress == model.RequiredFactCount {
		return model.PhaseOuro
	}

	if intent == model.IntentNegative {
		if progress < 1 {
			return model.PhaseCurioso
		}
		if exchanges >= 3 && progress < 2 {
			return model.PhaseCurioso
		}
		return model.PhaseSituacao
	}

	switch {
	case exchanges <= 1:
		return model.PhaseSituacao
	case facts.Dor == "":
		return model.PhaseProblema
	case progress < 3:
		return model.PhaseImplicacao
	default:
		return model.PhaseNecessidade
	}
}

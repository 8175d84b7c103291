package engine

import "github.com/oduo-labs/responder-cli/internal/model"

// Result is the outcome of one qualification pass.
type Result struct {
	Facts     model.Facts  `json:"qualification_data"`
	Progress  int          `json:"qualification_progress"`
	Missing   []string     `json:"missing_data"`
	Phase     model.Phase  `json:"phase"`
	Insights  string       `json:"salesperson_insights"`
	Exchanges int          `json:"total_exchanges"`
	Intent    model.Intent `json:"intent"`
}

// Ouro reports full qualification.
func (r Result) Ouro() bool {
	return r.Progress == model.RequiredFactCount
}

// Qualify runs the full pipeline over an up-to-date history: merge the
// extractors' findings into the existing facts, then derive progress,
// phase and the salesperson briefing. Pure and idempotent; callers persist
// the result.
func Qualify(history []model.Exchange, existing model.Facts, intent model.Intent) Result {
	facts := Merge(history, existing)

	return Result{
		Facts:     facts,
		Progress:  Progress(facts),
		Missing:   Missing(facts),
		Phase:     DeterminePhase(history, facts, intent),
		Insights:  Insights(facts, history),
		Exchanges: len(history) / 2,
		Intent:    intent,
	}
}

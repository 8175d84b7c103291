package engine

import (
	"strings"

	"github.com/oduo-labs/responder-cli/internal/model"
)

// Classify maps raw message text to an intent. Fixed precedence over a
// folded copy of the message: negative beats interest beats question;
// anything else is neutral. Total and deterministic, no scoring.
func Classify(message string) model.Intent {
	folded := strings.TrimSpace(Fold(message))

	if _, ok := firstMatch(folded, negativeTerms); ok {
		return model.IntentNegative
	}
	if _, ok := firstMatch(folded, interestTerms); ok {
		return model.IntentInterest
	}
	if _, ok := firstMatch(folded, questionTerms); ok {
		return model.IntentQuestion
	}
	return model.IntentNeutral
}

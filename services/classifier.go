package services

import (
	"regexp"

	"research-hub/models"
)

// Die Regeln werden in Reihenfolge geprüft; der erste Treffer gewinnt.
// Kein Scoring, keine Mischformen.
var (
	verifiedPattern = regexp.MustCompile(`(?i)hessian[.\s]ai`)
	probablePattern = regexp.MustCompile(`(?i)tu darmstadt|technische universität darmstadt|technical university darmstadt|@tu-darmstadt\.de`)
)

// ClassifyAffiliation leitet aus dem extrahierten Volltext ab, wie sicher
// die institutionelle Zugehörigkeit eines Papers ist. Ohne Text bleibt das
// Ergebnis "unchecked"; fehlende Signale sind nie ein Fehler.
func ClassifyAffiliation(text string) string {
	if text == "" {
		return models.AffiliationUnchecked
	}
	if verifiedPattern.MatchString(text) {
		return models.AffiliationVerified
	}
	if probablePattern.MatchString(text) {
		return models.AffiliationProbable
	}
	return models.AffiliationUnlikely
}

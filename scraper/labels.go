package scraper

import (
	"strings"

	"github.com/use-agent/fedscrape/models"
)

// label binds a paragraph label to the record field it fills.
type label struct {
	text string
	set  func(rec *models.AuthorizationRecord, value string)
}

// labels is checked in order; the first label a paragraph contains wins,
// so a paragraph fills at most one field.
var labels = []label{
	{"Independent Assessor:", func(r *models.AuthorizationRecord, v string) { r.IndependentAssessor = v }},
	{"FedRAMP Ready:", func(r *models.AuthorizationRecord, v string) { r.FedRAMPReady = v }},
	{"Authorizing Entity Review:", func(r *models.AuthorizationRecord, v string) { r.AuthorizingEntityReview = v }},
	{"PMO Review:", func(r *models.AuthorizationRecord, v string) { r.PMOReview = v }},
	{"FedRAMP Authorized:", func(r *models.AuthorizationRecord, v string) { r.FedRAMPAuthorized = v }},
	{"Annual Assessment:", func(r *models.AuthorizationRecord, v string) { r.AnnualAssessment = v }},
}

// applyParagraph stores the value of the first label found in text. A
// label with no value resets its field to absent. It reports whether any
// label matched.
func applyParagraph(rec *models.AuthorizationRecord, text string) bool {
	for _, l := range labels {
		if !strings.Contains(text, l.text) {
			continue
		}
		l.set(rec, extractValue(text, l.text))
		return true
	}
	return false
}

// extractValue returns the trimmed text between the first occurrence of
// label and the next one (or the end of text).
func extractValue(text, label string) string {
	_, after, found := strings.Cut(text, label)
	if !found {
		return ""
	}
	if i := strings.Index(after, label); i >= 0 {
		after = after[:i]
	}
	return strings.TrimSpace(after)
}

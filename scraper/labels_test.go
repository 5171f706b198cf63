package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/fedscrape/models"
)

func TestApplyParagraph_EachLabel(t *testing.T) {
	tests := []struct {
		text string
		want models.AuthorizationRecord
	}{
		{"Independent Assessor: Acme Corp", models.AuthorizationRecord{IndependentAssessor: "Acme Corp"}},
		{"FedRAMP Ready: 01/15/2021", models.AuthorizationRecord{FedRAMPReady: "01/15/2021"}},
		{"Authorizing Entity Review: 02/01/2021", models.AuthorizationRecord{AuthorizingEntityReview: "02/01/2021"}},
		{"PMO Review: 03/01/2021", models.AuthorizationRecord{PMOReview: "03/01/2021"}},
		{"FedRAMP Authorized: 04/01/2021", models.AuthorizationRecord{FedRAMPAuthorized: "04/01/2021"}},
		{"Annual Assessment: 05/01/2022", models.AuthorizationRecord{AnnualAssessment: "05/01/2022"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var rec models.AuthorizationRecord
			assert.True(t, applyParagraph(&rec, tt.text))
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestApplyParagraph_FirstLabelWins(t *testing.T) {
	var rec models.AuthorizationRecord
	assert.True(t, applyParagraph(&rec, "FedRAMP Ready: 01/15/2021 Independent Assessor: Acme"))

	assert.Equal(t, "Acme", rec.IndependentAssessor)
	assert.Empty(t, rec.FedRAMPReady)
}

func TestApplyParagraph_LabelInsideText(t *testing.T) {
	var rec models.AuthorizationRecord
	assert.True(t, applyParagraph(&rec, "Status  PMO Review:  06/30/2023 "))
	assert.Equal(t, "06/30/2023", rec.PMOReview)
}

func TestApplyParagraph_EmptyValueIsAbsent(t *testing.T) {
	rec := models.AuthorizationRecord{FedRAMPReady: "earlier"}

	assert.True(t, applyParagraph(&rec, "FedRAMP Ready:    "))
	assert.Empty(t, rec.FedRAMPReady)

	var fresh models.AuthorizationRecord
	applyParagraph(&fresh, "FedRAMP Ready:    ")
	assert.Equal(t, models.AuthorizationRecord{}, fresh)
}

func TestApplyParagraph_NoLabel(t *testing.T) {
	var rec models.AuthorizationRecord
	assert.False(t, applyParagraph(&rec, "Service Model: SaaS"))
	assert.False(t, applyParagraph(&rec, ""))
	assert.Equal(t, models.AuthorizationRecord{}, rec)
}

func TestApplyParagraph_LaterMatchOverwrites(t *testing.T) {
	var rec models.AuthorizationRecord
	applyParagraph(&rec, "PMO Review: first")
	applyParagraph(&rec, "PMO Review: second")
	assert.Equal(t, "second", rec.PMOReview)
}

func TestExtractValue(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
		want  string
	}{
		{"plain", "PMO Review: 01/01/2020", "PMO Review:", "01/01/2020"},
		{"trimmed", "PMO Review:\t 01/01/2020 \n", "PMO Review:", "01/01/2020"},
		{"only label", "PMO Review:", "PMO Review:", ""},
		{"repeated label", "PMO Review: a PMO Review: b", "PMO Review:", "a"},
		{"missing", "nothing here", "PMO Review:", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractValue(tt.text, tt.label))
		})
	}
}

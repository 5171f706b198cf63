package models

// AuthorizationRecord holds the fields scraped from one product's
// "Authorization Details" section. An empty string means the field was not
// found on the page.
type AuthorizationRecord struct {
	ID                      string `json:"id"`
	FedRAMPReady            string `json:"fedramp_ready"`
	AuthorizingEntityReview string `json:"authorizing_entity_review"`
	PMOReview               string `json:"pmo_review"`
	FedRAMPAuthorized       string `json:"fedramp_authorized"`
	AnnualAssessment        string `json:"annual_assessment"`
	IndependentAssessor     string `json:"independent_assessor"`
}

// NewAuthorizationRecord returns a record for id with every field absent.
func NewAuthorizationRecord(id string) *AuthorizationRecord {
	return &AuthorizationRecord{ID: id}
}

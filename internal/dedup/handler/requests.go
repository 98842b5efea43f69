package handler

import (
	"caseguard/internal/dedup/models"
	"caseguard/internal/dedup/normalize"
	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
)

// SearchRequest is the HTTP request body for POST /v1/duplicates/search.
// Field limits and normalization are applied by the service.
type SearchRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	NationalID string `json:"national_id"`
}

func (r *SearchRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *SearchRequest) Raw() normalize.RawCriteria {
	return normalize.RawCriteria{Name: r.Name, Phone: r.Phone, NationalID: r.NationalID}
}

// DecisionRequest is the HTTP request body for
// POST /v1/cases/{caseID}/dedup-decisions. SearchResult is the result the
// actor was shown, posted back verbatim.
type DecisionRequest struct {
	Decision               string               `json:"decision"`
	SelectedExistingCaseID *id.CaseID           `json:"selected_existing_case_id,omitempty"`
	Rationale              string               `json:"rationale"`
	SearchResult           *models.SearchResult `json:"search_result"`

	parsedKind models.DecisionKind
}

// Validate checks request shape only. Decision rules are enforced by the
// service against the posted search result.
func (r *DecisionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	kind, err := models.ParseDecisionKind(r.Decision)
	if err != nil {
		return err
	}
	r.parsedKind = kind

	if r.SearchResult == nil {
		return dErrors.New(dErrors.CodeValidation, "search_result is required")
	}
	if r.SearchResult.Candidates == nil {
		r.SearchResult.Candidates = []models.ScoredCandidate{}
	}
	for _, c := range r.SearchResult.Candidates {
		if c.ID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "search_result candidate id is required")
		}
		if len(c.MatchTypes) == 0 {
			return dErrors.New(dErrors.CodeValidation, "search_result candidate has no match types")
		}
		for _, mt := range c.MatchTypes {
			if _, ok := models.ParseMatchType(string(mt)); !ok {
				return dErrors.New(dErrors.CodeValidation, "search_result contains unknown match type: "+string(mt))
			}
		}
	}
	r.SearchResult.TotalMatches = len(r.SearchResult.Candidates)
	return nil
}

func (r *DecisionRequest) ToDecision() models.Decision {
	return models.Decision{
		Kind:                   r.parsedKind,
		SelectedExistingCaseID: r.SelectedExistingCaseID,
		Rationale:              r.Rationale,
	}
}

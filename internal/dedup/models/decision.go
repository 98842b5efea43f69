package models

import (
	"strings"
	"unicode/utf8"

	id "caseguard/pkg/domain"
	dErrors "caseguard/pkg/domain-errors"
)

// DecisionKind is the human resolution of a duplicate search.
type DecisionKind string

const (
	DecisionCreateNew   DecisionKind = "CREATE_NEW"
	DecisionUseExisting DecisionKind = "USE_EXISTING"
	DecisionMergeCases  DecisionKind = "MERGE_CASES"
)

// ParseDecisionKind accepts the canonical upper-case form only.
func ParseDecisionKind(s string) (DecisionKind, error) {
	switch k := DecisionKind(s); k {
	case DecisionCreateNew, DecisionUseExisting, DecisionMergeCases:
		return k, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unknown decision: "+s)
	}
}

// maxRationaleLength is counted in runes.
const maxRationaleLength = 4000

// Decision is what the actor chose, with their rationale.
type Decision struct {
	Kind                   DecisionKind `json:"decision"`
	SelectedExistingCaseID *id.CaseID   `json:"selected_existing_case_id,omitempty"`
	Rationale              string       `json:"rationale"`
}

// Validate checks the decision on its own and against the result that was
// shown. It performs no I/O. Rationale is trimmed in place.
func (d *Decision) Validate(shown *SearchResult) error {
	d.Rationale = strings.TrimSpace(d.Rationale)
	if d.Rationale == "" {
		return dErrors.New(dErrors.CodeValidation, "rationale is required")
	}
	if utf8.RuneCountInString(d.Rationale) > maxRationaleLength {
		return dErrors.New(dErrors.CodeValidation, "rationale is too long")
	}
	if _, err := ParseDecisionKind(string(d.Kind)); err != nil {
		return err
	}

	selected := d.SelectedExistingCaseID
	if selected != nil && selected.IsNil() {
		selected = nil
		d.SelectedExistingCaseID = nil
	}

	switch d.Kind {
	case DecisionUseExisting:
		if selected == nil {
			return dErrors.New(dErrors.CodeValidation, "selected_existing_case_id is required for USE_EXISTING")
		}
	case DecisionCreateNew:
		if selected != nil {
			return dErrors.New(dErrors.CodeValidation, "selected_existing_case_id is not allowed for CREATE_NEW")
		}
	}

	if selected != nil && (shown == nil || !shown.Contains(*selected)) {
		return dErrors.New(dErrors.CodeValidation, "selected case was not among the candidates shown")
	}
	return nil
}

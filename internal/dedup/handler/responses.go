package handler

import (
	"caseguard/internal/dedup/models"
)

// DecisionResponse is the recorded audit entry plus the resulting case flag.
type DecisionResponse struct {
	models.AuditEntry
	DedupChecked bool `json:"dedup_checked"`
}

func FromEntry(e *models.AuditEntry) DecisionResponse {
	return DecisionResponse{AuditEntry: *e, DedupChecked: true}
}

type HistoryResponse struct {
	Entries []*models.AuditEntry `json:"entries"`
}

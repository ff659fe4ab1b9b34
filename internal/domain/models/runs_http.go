package models

// Requests for run HTTP endpoints. Defined in domain for consistency and reuse.

type LastRunRequest struct {
	Records bool `query:"records" json:"records" default:"false"`
	Limit   int  `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=1000"`
}

// LastRunResponse is the body of GET /api/runs/last.
type LastRunResponse struct {
	Summary *RunSummary      `json:"summary"`
	Records []EnrichedRecord `json:"records,omitempty"`
}

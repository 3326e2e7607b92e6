package callback

// ProgressRequest is the body of POST /v1/commissions/{id}/progress.
type ProgressRequest struct {
	Summary string `json:"summary"`
}

// ResultRequest is the body of POST /v1/commissions/{id}/result.
type ResultRequest struct {
	Summary   string   `json:"summary"`
	Artifacts []string `json:"artifacts,omitempty"`
}

// QuestionRequest is the body of POST /v1/commissions/{id}/question.
type QuestionRequest struct {
	Question string `json:"question"`
}

// AcceptedResponse acknowledges a report.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is the health check body.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

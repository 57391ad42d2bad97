package model

type Citation struct {
	ID               string   `json:"id,omitempty"`
	ProductName      string   `json:"product_name"`
	DocumentType     string   `json:"document_type"`
	SourceFile       string   `json:"source_file,omitempty"`
	SectionHierarchy []string `json:"section_hierarchy"`
	RelevanceScore   float64  `json:"relevance_score"`
}

// QueryResponse is the structured answer returned by POST /query.
// Optional numeric fields are pointers so "absent" and "zero" stay distinct.
type QueryResponse struct {
	Answer               string     `json:"answer"`
	SessionID            string     `json:"session_id,omitempty"`
	ConfidenceScore      float64    `json:"confidence_score"`
	Citations            []Citation `json:"citations"`
	ProcessingTimeMs     *float64   `json:"processing_time_ms,omitempty"`
	ContextUsed          *int       `json:"context_used,omitempty"`
	ContextAvailable     *int       `json:"context_available,omitempty"`
	HasSufficientContext *bool      `json:"has_sufficient_context,omitempty"`
	Reasoning            string     `json:"reasoning,omitempty"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// ErrorResponse covers both the API's own error body and FastAPI's
// {"detail": ...} shape.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	AgentsStatus map[string]string `json:"agents_status"`
	Timestamp    string            `json:"timestamp"`
}
